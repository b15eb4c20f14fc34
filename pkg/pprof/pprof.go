package pprof

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Profiler writes cpu.pprof while running and memory.pprof on Stop
type Profiler struct {
	dir     string
	cpuFile *os.File
}

// Start begins CPU profiling into dir, default is ~/.catalog-browser
func Start(dir string) (*Profiler, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, errors.Wrap(err, "failed to get user home directory")
		}
		dir = filepath.Join(home, ".catalog-browser")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create pprof directory")
	}

	cpuPath := filepath.Join(dir, "cpu.pprof")
	f, err := os.Create(cpuPath)
	if err != nil {
		return nil, errors.Wrap(err, "could not create CPU profile file")
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "could not start CPU profile")
	}
	log.Info().Str("path", cpuPath).Msg("CPU profiling started")
	return &Profiler{dir: dir, cpuFile: f}, nil
}

func (p *Profiler) Stop() {
	pprof.StopCPUProfile()
	if err := p.cpuFile.Close(); err != nil {
		log.Error().Err(err).Msg("Could not close CPU profile")
	}

	memPath := filepath.Join(p.dir, "memory.pprof")
	f, err := os.Create(memPath)
	if err != nil {
		log.Error().Err(err).Str("path", memPath).Msg("Could not create memory profile file")
		return
	}
	defer f.Close()

	runtime.GC()
	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Error().Err(err).Str("path", memPath).Msg("Could not write memory profile")
		return
	}
	log.Info().Str("path", memPath).Msg("Memory profile written")
}
