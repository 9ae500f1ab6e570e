package core

import (
	"context"
	"fmt"
	"strings"

	"pkt.systems/canflash/schema"
	"pkt.systems/pslog"
)

// OptionCatalog exposes the firmware option tree.
type OptionCatalog interface {
	Menu(name string) []schema.Option
	Option(menu string, id schema.OptionID) (schema.Option, bool)
	AllOptionIDs() []schema.OptionID
}

// ConfigStore mutates the build configuration file.
type ConfigStore interface {
	AddMissingBoolKeys(keys []schema.OptionID)
	Set(key, value string) bool
	Write() error
}

// Service ties the option catalog, the config store, the pipeline and
// the monitor manager into the build/flash workflow.
type Service struct {
	cfg      schema.ServiceConfig
	catalog  OptionCatalog
	store    ConfigStore
	pipeline *Pipeline
	monitors *MonitorManager

	// FullClean decides whether a run rebuilds from scratch. Nil means
	// always incremental.
	FullClean func(ctx context.Context) bool
	// DiscoverPorts lists candidate flash targets.
	DiscoverPorts func() []schema.PortID
}

// NewService constructs the workflow service.
func NewService(cfg schema.ServiceConfig, catalog OptionCatalog, store ConfigStore, pipeline *Pipeline, monitors *MonitorManager) *Service {
	return &Service{
		cfg:      cfg,
		catalog:  catalog,
		store:    store,
		pipeline: pipeline,
		monitors: monitors,
	}
}

// CheckDependencies reports whether the example can run on the selected
// library. Both options must exist; an example without dependencies is
// compatible with every library, otherwise the library must appear in
// the example's depends-on list.
func (s *Service) CheckDependencies(libID, exampleID schema.OptionID) bool {
	if _, ok := s.catalog.Option(s.cfg.LibraryMenu, libID); !ok {
		return false
	}
	example, ok := s.catalog.Option(s.cfg.ExampleMenu, exampleID)
	if !ok {
		return false
	}
	if len(example.DependsOn) == 0 {
		return true
	}
	for _, dep := range example.DependsOn {
		if dep == libID {
			return true
		}
	}
	return false
}

// UpdateSdkconfig enables the selected library and example and disables
// every other catalog option, writing the file only when something
// changed. Returns false when the selection is invalid or the write
// fails.
func (s *Service) UpdateSdkconfig(ctx context.Context, libID, exampleID schema.OptionID) bool {
	log := pslog.Ctx(ctx)
	if !s.CheckDependencies(libID, exampleID) {
		if log != nil {
			log.Warn("incompatible selection", "library", libID, "example", exampleID)
		}
		return false
	}
	ids := s.catalog.AllOptionIDs()
	s.store.AddMissingBoolKeys(ids)
	changed := false
	for _, id := range ids {
		value := "n"
		if id == libID || id == exampleID {
			value = "y"
		}
		if s.store.Set(string(id), value) {
			changed = true
		}
	}
	if !changed {
		if log != nil {
			log.Debug("sdkconfig unchanged", "library", libID, "example", exampleID)
		}
		return true
	}
	if err := s.store.Write(); err != nil {
		if log != nil {
			log.Error("sdkconfig write failed", "err", err)
		}
		return false
	}
	if log != nil {
		log.Info("sdkconfig updated", "library", libID, "example", exampleID)
	}
	return true
}

func (s *Service) compileSpec(ctx context.Context) schema.CommandSpec {
	target := "all"
	if s.FullClean != nil && s.FullClean(ctx) {
		target = "fullclean all"
	}
	return schema.CommandSpec{
		Name:    "compile",
		Command: fmt.Sprintf("source %s && idf.py %s", s.cfg.IdfSetupPath, target),
	}
}

func (s *Service) flashSpec(port schema.PortID) schema.CommandSpec {
	return schema.CommandSpec{
		Name:    fmt.Sprintf("flash %s", port),
		Command: fmt.Sprintf("source %s && idf.py -p %s flash", s.cfg.IdfSetupPath, schema.DevicePath(port)),
	}
}

// Compile builds the firmware without flashing.
func (s *Service) Compile(ctx context.Context) bool {
	return s.pipeline.Run(ctx, []Step{CommandStep(s.compileSpec(ctx))})
}

// ConfigCompileFlash runs the full workflow for port: stop all
// monitors, update the configuration, compile, flash.
func (s *Service) ConfigCompileFlash(ctx context.Context, port schema.PortID, libID, exampleID schema.OptionID) bool {
	log := pslog.Ctx(ctx)
	if s.monitors != nil {
		// Flashing over a port that a monitor holds open fails with a
		// busy device.
		s.monitors.StopAll(ctx)
	}
	steps := []Step{
		OpStep("update configuration", func(opCtx context.Context) error {
			if !s.UpdateSdkconfig(opCtx, libID, exampleID) {
				return fmt.Errorf("update sdkconfig for %s/%s", libID, exampleID)
			}
			return nil
		}),
		CommandStep(s.compileSpec(ctx)),
		CommandStep(s.flashSpec(port)),
	}
	ok := s.pipeline.Run(ctx, steps)
	if log != nil {
		log.Info("flash workflow finished", "port", port, "library", libID, "example", exampleID, "ok", ok)
	}
	return ok
}

// FindFlashPorts lists the ports a flash can target.
func (s *Service) FindFlashPorts() []schema.PortID {
	if s.DiscoverPorts == nil {
		return schema.DefaultSimulatedPorts()
	}
	return s.DiscoverPorts()
}

// Monitors exposes the monitor manager for the presentation layer.
func (s *Service) Monitors() *MonitorManager {
	return s.monitors
}

// ResolveSelection validates a raw library/example selection against
// the catalog.
func (s *Service) ResolveSelection(lib, example string) (schema.OptionID, schema.OptionID, error) {
	if strings.TrimSpace(lib) == "" || strings.TrimSpace(example) == "" {
		return "", "", schema.ErrEmptySelection
	}
	libID := schema.OptionID(lib)
	exampleID := schema.OptionID(example)
	if _, ok := s.catalog.Option(s.cfg.LibraryMenu, libID); !ok {
		return "", "", fmt.Errorf("%w: %s", schema.ErrOptionNotFound, libID)
	}
	if _, ok := s.catalog.Option(s.cfg.ExampleMenu, exampleID); !ok {
		return "", "", fmt.Errorf("%w: %s", schema.ErrOptionNotFound, exampleID)
	}
	return libID, exampleID, nil
}
