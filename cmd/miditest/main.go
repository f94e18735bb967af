package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	lp "go-stepgrid/midi"
	"go-stepgrid/sequencer"
)

var (
	pingPort    string
	pingDevice  int
	pingTimeout time.Duration
	textItem    int
	textMessage string
	ledPreset   string
)

var rootCmd = &cobra.Command{
	Use:   "miditest",
	Short: "MIDI test scripts for go-stepgrid",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all MIDI ports",
	Run:   func(cmd *cobra.Command, args []string) { listPorts() },
}

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Find a Launchpad X",
	Run:   func(cmd *cobra.Command, args []string) { detectLaunchpad() },
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Send a SysEx ping and wait for the pong",
	Long: `Send the display protocol ping (F0 47 00 <device> 00 F7) to a port and
wait for the device to answer with a pong. With --text the message is shown on
the device display afterwards.`,
	RunE: func(cmd *cobra.Command, args []string) error { return ping() },
}

var ledsCmd = &cobra.Command{
	Use:   "leds",
	Short: "Show a test clip on the Launchpad",
	RunE:  func(cmd *cobra.Command, args []string) error { return testLEDs() },
}

func init() {
	pingCmd.Flags().StringVar(&pingPort, "port", "", "port name (substring match)")
	pingCmd.Flags().IntVar(&pingDevice, "device", 0, "device id")
	pingCmd.Flags().DurationVar(&pingTimeout, "timeout", 2*time.Second, "how long to wait for the pong")
	pingCmd.Flags().IntVar(&textItem, "item", 0, "display item for --text")
	pingCmd.Flags().StringVar(&textMessage, "text", "", "text to show after a successful ping")
	pingCmd.MarkFlagRequired("port")

	ledsCmd.Flags().StringVar(&ledPreset, "preset", "launchpad", "layout preset used to draw the clip")

	rootCmd.AddCommand(listCmd, detectCmd, pingCmd, ledsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}
	ch := make(chan result, 1)
	go func() {
		ins := midi.GetInPorts()
		outs := midi.GetOutPorts()
		ch <- result{ins: ins, outs: outs}
	}()

	select {
	case r := <-ch:
		for i, p := range r.ins {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, p := range r.outs {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! CoreMIDI is hung.")
		fmt.Println("Fix: sudo killall coreaudiod midiserver")
	}
}

func isLaunchpad(name string) bool {
	name = strings.ToLower(name)
	return strings.Contains(name, "launchpad") && strings.Contains(name, "midi")
}

func detectLaunchpad() {
	fmt.Println("Looking for Launchpad X...")

	var foundIn, foundOut bool
	for i, p := range midi.GetInPorts() {
		if isLaunchpad(p.String()) {
			fmt.Printf("Found input: %d: %s\n", i, p.String())
			foundIn = true
		}
	}
	for i, p := range midi.GetOutPorts() {
		if isLaunchpad(p.String()) {
			fmt.Printf("Found output: %d: %s\n", i, p.String())
			foundOut = true
		}
	}

	if foundIn && foundOut {
		fmt.Println("\nLaunchpad X detected!")
	} else {
		fmt.Println("\nLaunchpad X not found")
	}
}

func ping() error {
	framer := lp.Framer{Manufacturer: lp.ManufacturerAkai, DeviceID: byte(pingDevice)}

	out, err := midi.FindOutPort(pingPort)
	if err != nil {
		return fmt.Errorf("output %q: %w", pingPort, err)
	}
	in, err := midi.FindInPort(pingPort)
	if err != nil {
		return fmt.Errorf("input %q: %w", pingPort, err)
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}

	pong := make(chan struct{}, 1)
	stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
		var data []byte
		if !msg.GetSysEx(&data) {
			return
		}
		// GetSysEx strips F0/F7
		frame := append(append([]byte{0xF0}, data...), 0xF7)
		if framer.IsPong(frame) {
			select {
			case pong <- struct{}{}:
			default:
			}
		}
	}, midi.UseSysEx())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	defer stop()

	fmt.Printf("Ping %s (device %d)\n", out.String(), pingDevice)
	start := time.Now()
	if err := send(midi.Message(framer.Ping())); err != nil {
		return fmt.Errorf("send ping: %w", err)
	}

	select {
	case <-pong:
		fmt.Printf("Pong after %s\n", time.Since(start).Round(time.Millisecond))
	case <-time.After(pingTimeout):
		return fmt.Errorf("no pong within %s", pingTimeout)
	}

	if textMessage != "" {
		display := lp.NewDisplay(framer, textItem, send)
		display.Notify(textMessage)
		fmt.Printf("Sent text to item %d\n", textItem)
	}
	return nil
}

// testLEDs renders a small clip through the step sequencer and shows it
func testLEDs() error {
	fmt.Println("Testing LED control...")

	var outPort drivers.Out
	for _, p := range midi.GetOutPorts() {
		if isLaunchpad(p.String()) {
			outPort = p
			break
		}
	}
	if outPort == nil {
		return fmt.Errorf("no Launchpad found")
	}

	ctrl, err := lp.NewLaunchpadController(outPort.String(), nil, outPort)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	layout, ok := sequencer.LayoutPreset(ledPreset)
	if !ok {
		return fmt.Errorf("unknown preset %q", ledPreset)
	}

	// four on the floor, offbeat hats, a held snare
	clip := sequencer.NewMemoryClip(layout.PageWidth(), layout.PageWidth(), 0.25)
	for step := 0; step < layout.PageWidth(); step += 4 {
		clip.SetStep(9, step, 36, 127, 0.25)
		clip.SetStep(9, step+2, 38, 90, 0.25)
	}
	clip.SetStep(9, 4, 37, 100, 1.0)
	clip.SetCurrentStep(0)

	frame := sequencer.Render(sequencer.RenderInput{
		Layout:     layout,
		Paging:     sequencer.PagingState{DrumOffset: 36},
		Channel:    9,
		Clip:       clip,
		Active:     true,
		LaneColors: sequencer.GetKit(sequencer.DefaultKit),
		Colors:     sequencer.DefaultStepColors,
	})

	var updates []lp.LEDUpdate
	for pad, c := range frame {
		x, y := layout.Coords(pad)
		if x < lp.GridSize && y < lp.GridSize {
			updates = append(updates, lp.LEDUpdate{Row: y, Col: x, Color: c})
		}
	}
	if err := ctrl.SetLEDBatch(updates); err != nil {
		return err
	}

	fmt.Println("Press Enter to clear...")
	fmt.Scanln()
	fmt.Println("Done!")
	return nil
}
