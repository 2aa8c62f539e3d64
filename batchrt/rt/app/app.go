package app

import (
	"fmt"

	"github.com/gekko3d/batchext"
	"github.com/gekko3d/batchext/batchrt/rt/binding"
	"github.com/gekko3d/batchext/batchrt/rt/debugview"
	"github.com/gekko3d/batchext/batchrt/rt/gpu"
	"github.com/gekko3d/batchext/batchrt/rt/scene"
	"github.com/gekko3d/batchext/batchrt/rt/shaders"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	RenderPipeline *wgpu.RenderPipeline
	BindGroup      *wgpu.BindGroup

	Uploader *gpu.Uploader
	Scene    *scene.Scene
	Logger   batchext.Logger
	Profiler *Profiler

	Grid         int
	DebugMode    bool
	SnapshotPath string
	Paused       bool

	StartTime      float64
	LastRenderTime float64
	FrameCount     int
	FPS            float64
	FPSTime        float64
}

func NewApp(window *glfw.Window, logger batchext.Logger) *App {
	return &App{
		Window:   window,
		Logger:   logger,
		Profiler: NewProfiler(),
		Grid:     8,
	}
}

func (a *App) Init() error {
	var err error
	a.Scene, err = scene.NewScene(a.Grid, a.Logger)
	if err != nil {
		return err
	}

	// WebGPU Init
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(wgpuglfw.GetSurfaceDescriptor(a.Window))

	a.Adapter, err = a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return err
	}
	a.Device, err = a.Adapter.RequestDevice(nil)
	if err != nil {
		return err
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(a.Adapter)
	format := caps.Formats[0]
	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      format,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	a.Surface.Configure(a.Adapter, a.Device, a.Config)

	// Shader: the template plus decode code generated for the scene's schema
	decode, err := a.Scene.Ext.ShaderSource(binding.WGSLOptions{Group: 0, Binding: 0, Indirect: true})
	if err != nil {
		return err
	}
	module, err := a.Device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "Batched Mesh VS/FS",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.Assemble(shaders.BatchedMeshWGSL, decode)},
	})
	if err != nil {
		return err
	}
	defer module.Release()

	bgl, err := a.Device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label:   "Batched Uniforms BGL",
		Entries: gpu.BindGroupLayoutEntries(0, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment),
	})
	if err != nil {
		return err
	}
	layout, err := a.Device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Batched Mesh Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{bgl},
	})
	if err != nil {
		return err
	}

	a.RenderPipeline, err = a.Device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Batched Mesh Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: 12,
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{{
					Format:         wgpu.VertexFormatFloat32x3,
					Offset:         0,
					ShaderLocation: 0,
				}},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    format,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return err
	}

	// Resources: the first sync creates and fills every GPU object
	a.Uploader = gpu.NewUploader(a.Device, a.Logger)
	if err := a.Uploader.Sync(a.Scene.Ext.Uniforms(), a.Scene.Mesh); err != nil {
		return err
	}
	a.BindGroup, err = a.Device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "Batched Uniforms BG",
		Layout:  bgl,
		Entries: a.Uploader.BindGroupEntries(0),
	})
	if err != nil {
		return err
	}

	if a.SnapshotPath != "" {
		if err := a.WriteSnapshot(a.SnapshotPath); err != nil {
			a.Logger.Warnf("snapshot: %v", err)
		}
	}

	a.StartTime = glfw.GetTime()
	return nil
}

func (a *App) Resize(w, h int) {
	if w > 0 && h > 0 {
		a.Config.Width = uint32(w)
		a.Config.Height = uint32(h)
		a.Surface.Configure(a.Adapter, a.Device, a.Config)
	}
}

// WriteSnapshot saves the CPU copy of the uniforms texture as a PNG.
func (a *App) WriteSnapshot(path string) error {
	tex, err := a.Scene.Ext.Uniforms().Texture()
	if err != nil {
		return err
	}
	img := debugview.Snapshot(tex, 8, debugview.Caption(tex))
	if err := debugview.WritePNG(path, img); err != nil {
		return err
	}
	a.Logger.Infof("uniforms snapshot written to %s", path)
	return nil
}

func (a *App) Update() {
	a.Profiler.BeginScope("Animate")
	if !a.Paused {
		if err := a.Scene.Animate(glfw.GetTime() - a.StartTime); err != nil {
			a.Logger.Errorf("animate: %v", err)
		}
	}
	a.Profiler.EndScope("Animate")

	a.Profiler.BeginScope("Sync")
	if err := a.Uploader.Sync(a.Scene.Ext.Uniforms(), a.Scene.Mesh); err != nil {
		a.Logger.Errorf("sync: %v", err)
	}
	a.Profiler.EndScope("Sync")
	a.Profiler.SetCount("Draws", a.Uploader.DrawCount)
	a.Profiler.SetCount("TexelsUploaded", a.Uploader.TexelsUploaded())
}

func (a *App) Render() {
	draws, err := a.Scene.Draws()
	if err != nil {
		a.Logger.Errorf("draws: %v", err)
		return
	}

	nextTexture, err := a.Surface.GetCurrentTexture()
	if err != nil {
		fmt.Printf("ERROR: GetCurrentTexture failed: %v\n", err)
		return
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		fmt.Printf("ERROR: CreateView failed: %v\n", err)
		return
	}
	defer view.Release()

	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		fmt.Printf("ERROR: CreateCommandEncoder failed: %v\n", err)
		return
	}

	rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: wgpu.Color{R: 0.05, G: 0.05, B: 0.07, A: 1},
		}},
	})
	rPass.SetPipeline(a.RenderPipeline)
	rPass.SetBindGroup(0, a.BindGroup, nil)
	rPass.SetVertexBuffer(0, a.Uploader.VertexBuffer, 0, wgpu.WholeSize)
	rPass.SetIndexBuffer(a.Uploader.IndexBuffer, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)

	// One draw per visible instance; the first-instance argument carries the
	// draw ordinal the shader resolves through the indirect texture.
	coarse := 0
	for _, d := range draws {
		rPass.DrawIndexed(uint32(d.Count), 1, uint32(d.Start), 0, uint32(d.Ordinal))
		if d.Level > 0 {
			coarse++
		}
	}
	a.Profiler.SetCount("CoarseLOD", coarse)

	err = rPass.End()
	if err != nil {
		fmt.Printf("ERROR: Render pass End failed: %v\n", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		fmt.Printf("ERROR: Encoder Finish failed: %v\n", err)
		return
	}
	a.Queue.Submit(cmd)
	a.Surface.Present()

	// Update FPS
	now := glfw.GetTime()
	if a.LastRenderTime > 0 {
		a.FrameCount++
		a.FPSTime += now - a.LastRenderTime
		if a.FPSTime >= 1.0 {
			a.FPS = float64(a.FrameCount) / a.FPSTime
			a.FrameCount = 0
			a.FPSTime = 0
			if a.DebugMode {
				a.Logger.Debugf("fps %.1f\n%s", a.FPS, a.Profiler.GetStatsString())
			}
		}
	}
	a.LastRenderTime = now
}

func (a *App) Release() {
	if a.Uploader != nil {
		a.Uploader.Release()
	}
	if a.BindGroup != nil {
		a.BindGroup.Release()
	}
	if a.RenderPipeline != nil {
		a.RenderPipeline.Release()
	}
}
