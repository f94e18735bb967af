package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"go-stepgrid/config"
	"go-stepgrid/debug"
	"go-stepgrid/midi"
	"go-stepgrid/sequencer"
	"go-stepgrid/theme"
	"go-stepgrid/tui"
)

var (
	configPath  string
	debugLog    bool
	preset      string
	palettePath string
	exportPath  string
)

var rootCmd = &cobra.Command{
	Use:   "go-stepgrid",
	Short: "A grid controller step sequencer",
	Long: `go-stepgrid turns a pad grid controller into a drum step sequencer.

Pads toggle steps, holding a pad and pressing a later one extends the note,
and the duplicate button copies a note to other steps. The grid mirrors the
clip and the playhead at 30 frames per second. Controllers are detected
automatically when plugged in; the terminal view works without one.`,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default ~/.config/go-stepgrid/config.json)")
	rootCmd.Flags().BoolVar(&debugLog, "debug", false, "write a debug log to ~/.config/go-stepgrid/debug.log")
	rootCmd.Flags().StringVarP(&preset, "preset", "p", "", "layout preset: push, fire, launchpad or custom")
	rootCmd.Flags().StringVar(&palettePath, "palette", "", "GIMP palette (.gpl) for the terminal colors")
	rootCmd.Flags().StringVarP(&exportPath, "export", "o", "stepgrid.mid", "MIDI file written by the export key")
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFile(configPath)
	}
	return config.Load()
}

func run(cmd *cobra.Command, args []string) error {
	if debugLog {
		if err := debug.Enable(""); err != nil {
			return fmt.Errorf("enable debug log: %w", err)
		}
		defer debug.Disable()
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	savedPreset := cfg.Layout.Preset
	if preset != "" {
		cfg.Layout.Preset = preset
	}
	if palettePath == "" {
		palettePath = cfg.UI.Palette
	}

	palette, err := theme.LoadOrDefault(palettePath)
	if err != nil {
		return err
	}
	th := theme.New(palette)

	mc, err := cfg.ManagerConfig()
	if err != nil {
		return err
	}
	mc.Engine.Colors = th.StepColors()
	manager := sequencer.NewManager(mc)
	debug.Log("main", "layout %+v, channel %d", mc.Engine.Layout, mc.Engine.Channel+1)

	if name := cfg.SynthOutput.PortName; name != "" {
		out, err := midi.OpenOutput(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "synth output %q unavailable: %v\n", name, err)
		} else {
			manager.SetOutput(out)
		}
	}
	if name := cfg.Display.PortName; name != "" {
		framer := midi.Framer{Manufacturer: midi.ManufacturerAkai, DeviceID: byte(cfg.Display.DeviceID)}
		display, err := midi.OpenDisplay(name, framer, cfg.Display.TextItem)
		if err != nil {
			fmt.Fprintf(os.Stderr, "display %q unavailable: %v\n", name, err)
		} else {
			manager.SetDisplay(display)
		}
	}

	manager.StartRuntime()
	defer manager.Stop()

	// Create MIDI device manager (handles hot-plug)
	deviceMgr := midi.NewDeviceManager(cfg.KeyboardPorts()...)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go deviceMgr.Run(ctx)

	m := tui.NewModel(manager, deviceMgr, th)
	m.ExportPath = exportPath
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	// flags are not persisted
	cfg.Layout.Preset = savedPreset
	cfg.UI.LastTempo = manager.Tempo()
	if configPath != "" {
		return cfg.SaveFile(configPath)
	}
	return cfg.Save()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
