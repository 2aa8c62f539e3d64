package main

import (
	"flag"
	"runtime"

	"github.com/gekko3d/batchext"
	"github.com/gekko3d/batchext/batchrt/rt/app"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging (timings, flush ranges)")
	grid := flag.Int("grid", 8, "Instances per side of the grid")
	snapshot := flag.String("snapshot", "", "Write the uniforms texture to this PNG after init")
	flag.Parse()

	logger := batchext.NewDefaultLogger("batchrt", *debug)

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(1024, 1024, "BatchRT Go", nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	application := app.NewApp(window, logger)
	application.Grid = *grid
	application.DebugMode = *debug
	application.SnapshotPath = *snapshot
	if err := application.Init(); err != nil {
		panic(err)
	}
	defer application.Release()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)
		case glfw.KeySpace:
			application.Paused = !application.Paused
		case glfw.KeyH:
			// hide every third instance; draw ordinals compact through the indirect table
			if err := application.Scene.ToggleVisible(3); err != nil {
				logger.Errorf("toggle visibility: %v", err)
			}
		case glfw.KeyP:
			if err := application.WriteSnapshot("uniforms.png"); err != nil {
				logger.Errorf("snapshot: %v", err)
			}
		}
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		application.Update()
		application.Render()
	}
}
