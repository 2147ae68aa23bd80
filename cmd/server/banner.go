package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/shopapp/backend/internal/config"
)

var (
	bannerBox   = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).Padding(0, 2)
	bannerTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	bannerLabel = lipgloss.NewStyle().Width(12).Foreground(lipgloss.Color("245"))
)

// renderBanner prints the startup summary box.
func renderBanner(cfg *config.AppConfig, configPath string) string {
	maxUpload := cfg.Storage.MaxUploadSize
	if n, err := cfg.MaxUploadBytes(); err == nil {
		maxUpload = humanize.IBytes(uint64(n))
	}
	deletion := "disabled"
	if cfg.Security.AllowFileDeletion {
		deletion = "enabled"
	}

	rows := [][2]string{
		{"Version", Version},
		{"Build Time", BuildTime},
		{"Config", configPath},
		{"Listen", "http://" + cfg.GetServerAddr()},
		{"Uploads", cfg.GetUploadDir()},
		{"Max Upload", maxUpload},
		{"Deletion", deletion},
	}

	lines := []string{bannerTitle.Render("Shop Backend Server"), ""}
	for _, r := range rows {
		lines = append(lines, bannerLabel.Render(r[0]+":")+" "+r[1])
	}
	return bannerBox.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
