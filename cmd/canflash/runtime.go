package main

import (
	"context"
	"fmt"
	"time"

	"pkt.systems/canflash/core"
	"pkt.systems/canflash/internal/appconfig"
	"pkt.systems/canflash/internal/kconfig"
	"pkt.systems/canflash/internal/ports"
	"pkt.systems/canflash/internal/sdkconfig"
	"pkt.systems/canflash/internal/shellproc"
	"pkt.systems/canflash/schema"
	"pkt.systems/pslog"
)

// appRuntime wires the core for one command invocation.
type appRuntime struct {
	cfg      appconfig.Config
	svcCfg   schema.ServiceConfig
	registry *shellproc.Registry
	sink     *core.BufferedLog
	sched    *core.GoScheduler
	monitors *core.MonitorManager
	factory  core.RunnerFactory
}

func newAppRuntime(ctx context.Context, cfgPath string) (*appRuntime, func(), error) {
	cfg, err := appconfig.Load(cfgPath)
	if err != nil {
		return nil, nil, err
	}
	svcCfg := cfg.ServiceConfig()

	registry := shellproc.NewRegistry()
	sink := core.NewBufferedLog(newConsoleSurface(), core.SinkOptions{
		Capacity:      cfg.Sink.BufferSize,
		FlushInterval: time.Duration(cfg.Sink.FlushIntervalMS) * time.Millisecond,
		MaxLines:      cfg.Sink.MaxLines,
		Logger:        pslog.Ctx(ctx),
	})
	factory := shellproc.Factory(shellproc.Options{
		Registry:   registry,
		RunTimeout: svcCfg.RunTimeout,
		TermGrace:  svcCfg.TermGrace,
	})
	sched := core.NewGoScheduler(ctx)
	monitors := core.NewMonitorManager(svcCfg, factory, sink, sched)

	rt := &appRuntime{
		cfg:      cfg,
		svcCfg:   svcCfg,
		registry: registry,
		sink:     sink,
		sched:    sched,
		monitors: monitors,
		factory:  factory,
	}
	cleanup := func() {
		monitors.StopAll(ctx)
		registry.TerminateAll()
		sched.Wait()
		sink.Flush()
	}
	return rt, cleanup, nil
}

// service loads the option catalog and sdkconfig store and builds the
// flash service on top of the runtime.
func (rt *appRuntime) service(ctx context.Context) (*core.Service, error) {
	logger := pslog.Ctx(ctx)
	catalog, err := kconfig.Load(rt.svcCfg.KconfigPath, rt.svcCfg.MenuName, logger)
	if err != nil {
		return nil, fmt.Errorf("load option catalog: %w", err)
	}
	store, err := sdkconfig.Load(rt.svcCfg.SdkconfigPath, logger)
	if err != nil {
		return nil, fmt.Errorf("load sdkconfig: %w", err)
	}
	pipeline := core.NewPipeline(rt.factory, rt.sink)
	svc := core.NewService(rt.svcCfg, catalog, store, pipeline, rt.monitors)
	svc.DiscoverPorts = ports.Discover
	return svc, nil
}

// catalog loads just the option catalog, for read-only commands.
func (rt *appRuntime) catalog(ctx context.Context) (*kconfig.Catalog, error) {
	catalog, err := kconfig.Load(rt.svcCfg.KconfigPath, rt.svcCfg.MenuName, pslog.Ctx(ctx))
	if err != nil {
		return nil, fmt.Errorf("load option catalog: %w", err)
	}
	return catalog, nil
}
