package main

import (
	"context"
	"fmt"
	"sync"

	"isoengine/internal/demo"
	"isoengine/internal/engine"
	"isoengine/internal/gpu/gldriver"
	"isoengine/internal/logging"
	"isoengine/internal/platform/glfwhost"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/spf13/cobra"
	"github.com/xlab/closer"
	"go.uber.org/zap"
)

var (
	flagWidth      int
	flagHeight     int
	flagFPS        int
	flagUpdateRate int
	flagGridSize   int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Open a window and run the demo grid",
	Args:  cobra.NoArgs,
	RunE:  runEngine,
}

func init() {
	runCmd.Flags().IntVar(&flagWidth, "width", 1280, "Window width")
	runCmd.Flags().IntVar(&flagHeight, "height", 720, "Window height")
	runCmd.Flags().IntVar(&flagFPS, "fps", 0, "Frame cap (0 = uncapped)")
	runCmd.Flags().IntVar(&flagUpdateRate, "update-rate", 0, "Fixed update rate in Hz (0 = once per frame)")
	runCmd.Flags().IntVar(&flagGridSize, "grid", 32, "Demo grid size in tiles")
}

// session owns everything tied to the GL thread. shutdown runs there;
// closer's signal handler only asks the window to close and waits.
type session struct {
	log *zap.Logger
	win *glfwhost.Window
	drv *gldriver.Driver
	eng *engine.Engine

	mu       sync.Mutex
	finished bool
	done     chan struct{}
}

func (s *session) requestStop() {
	s.mu.Lock()
	if !s.finished && s.win != nil {
		s.win.Close()
	}
	s.mu.Unlock()
	<-s.done
}

func (s *session) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.finished = true

	if s.eng != nil {
		if err := s.eng.Teardown(); err != nil {
			s.log.Warn("teardown", zap.Error(err))
		}
	}
	if s.drv != nil {
		s.drv.Dispose()
	}
	if s.win != nil {
		s.win.Destroy()
	}
	glfw.Terminate()
	_ = s.log.Sync()
	close(s.done)
}

func runEngine(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("init glfw: %w", err)
	}
	s := &session{log: log, done: make(chan struct{})}
	closer.Bind(s.requestStop)

	if s.win, err = glfwhost.Open(cfg.Window); err != nil {
		s.shutdown()
		return err
	}
	s.drv = gldriver.New()

	s.eng, err = engine.New(cfg, s.win, s.drv,
		engine.WithLogger(log),
		engine.WithContent(func(e *engine.Engine) error {
			if err := e.Scenes().Add("grid", demo.Factory(flagGridSize, s.win.Close)); err != nil {
				return err
			}
			return e.Scenes().Switch("grid")
		}),
	)
	if err != nil {
		s.shutdown()
		return fmt.Errorf("start engine: %w", err)
	}
	s.win.Attach(s.eng)

	runErr := s.eng.Run(context.Background())
	s.shutdown()
	if runErr != nil {
		closer.Fatalln(runErr)
	}
	closer.Close()
	return nil
}
