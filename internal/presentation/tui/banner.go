package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for Adjuster.
func PrintBanner() {
	p := termenv.ColorProfile()
	// Sky-to-deep-blue gradient.
	s1 := termenv.String(`    _     ____       _  _   _  ____   _____  _____  ____  `).Foreground(p.Color("#7dd3fc"))
	s2 := termenv.String(`   / \   |  _ \     | || | | |/ ___| |_   _|| ____||  _ \ `).Foreground(p.Color("#38bdf8"))
	s3 := termenv.String(`  / _ \  | | | | _  | || | | |\___ \   | |  |  _|  | |_) |`).Foreground(p.Color("#0ea5e9"))
	s4 := termenv.String(` / ___ \ | |_| || |_| || |_| | ___) |  | |  | |___ |  _ < `).Foreground(p.Color("#0284c7"))
	s5 := termenv.String(`/_/   \_\|____/  \___/  \___/ |____/   |_|  |_____||_| \_\`).Foreground(p.Color("#0369a1"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println()
}
