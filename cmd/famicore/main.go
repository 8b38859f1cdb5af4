// Package main implements the famicore executable: it loads an iNES ROM,
// runs the CPU against the system bus and presents each completed PPU
// frame in an Ebitengine window.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"

	"famicore/internal/bus"
	"famicore/internal/cartridge"
	"famicore/internal/cpu"
	"famicore/internal/ppu"
	"famicore/internal/render"
	"famicore/internal/version"
)

func main() {
	var (
		romFile     = flag.String("rom", "", "Path to iNES ROM file")
		scale       = flag.Int("scale", 3, "Window scale factor")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *romFile == "" {
		fmt.Fprintln(os.Stderr, "usage: famicore -rom <file.nes> [-scale N]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cart, err := cartridge.LoadFile(*romFile)
	if err != nil {
		log.Fatalf("load ROM %s: %v", *romFile, err)
	}

	game := newGame()

	systemBus := bus.New(cart)
	systemBus.OnFrame(func(p *ppu.PPU) {
		render.Render(p, game.workFrame)
		game.publish(game.workFrame)
	})

	c := cpu.New(systemBus)
	c.Reset()
	go func() {
		c.Run()
		log.Println("CPU halted")
	}()

	ebiten.SetWindowSize(render.FrameWidth**scale, render.FrameHeight**scale)
	ebiten.SetWindowTitle("famicore")
	if err := ebiten.RunGame(game); err != nil {
		log.Fatalf("run: %v", err)
	}
}

// game presents the emulator's framebuffer. The CPU goroutine publishes
// frames through a mutex-guarded pixel buffer; Draw uploads the latest one.
type game struct {
	// workFrame is only touched from the CPU goroutine's frame callback.
	workFrame *render.Frame

	mu     sync.Mutex
	pixels []uint8 // RGBA, latest published frame
}

func newGame() *game {
	return &game{
		workFrame: render.NewFrame(),
		pixels:    make([]uint8, render.FrameWidth*render.FrameHeight*4),
	}
}

// publish converts the rendered RGB frame to RGBA and hands it to Draw.
func (g *game) publish(frame *render.Frame) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := 0; i < render.FrameWidth*render.FrameHeight; i++ {
		g.pixels[i*4] = frame.Data[i*3]
		g.pixels[i*4+1] = frame.Data[i*3+1]
		g.pixels[i*4+2] = frame.Data[i*3+2]
		g.pixels[i*4+3] = 0xFF
	}
}

func (g *game) Update() error {
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.mu.Lock()
	defer g.mu.Unlock()
	screen.WritePixels(g.pixels)
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return render.FrameWidth, render.FrameHeight
}
