package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"pkt.systems/canflash/schema"
)

type fakeCatalog struct {
	menus map[string][]schema.Option
}

func (c *fakeCatalog) Menu(name string) []schema.Option {
	return c.menus[name]
}

func (c *fakeCatalog) Option(menu string, id schema.OptionID) (schema.Option, bool) {
	for _, option := range c.menus[menu] {
		if option.ID == id {
			return option, true
		}
	}
	return schema.Option{}, false
}

func (c *fakeCatalog) AllOptionIDs() []schema.OptionID {
	var ids []schema.OptionID
	for _, options := range c.menus {
		for _, option := range options {
			ids = append(ids, option.ID)
		}
	}
	return ids
}

type fakeStore struct {
	values   map[string]string
	writes   int
	writeErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: make(map[string]string)}
}

func (s *fakeStore) AddMissingBoolKeys(keys []schema.OptionID) {
	for _, key := range keys {
		k := "CONFIG_" + string(key)
		if _, ok := s.values[k]; !ok {
			s.values[k] = "n"
		}
	}
}

func (s *fakeStore) Set(key, value string) bool {
	k := "CONFIG_" + key
	if s.values[k] == value {
		return false
	}
	s.values[k] = value
	return true
}

func (s *fakeStore) Write() error {
	s.writes++
	return s.writeErr
}

const (
	libMenu     = "Select CAN driver/library"
	exampleMenu = "Select example"
)

func serviceConfig() schema.ServiceConfig {
	return schema.ServiceConfig{
		IdfSetupPath: "~/esp/v5.4.1/esp-idf/export.sh",
		LibraryMenu:  libMenu,
		ExampleMenu:  exampleMenu,
		Baud:         115200,
		SelfPath:     "/usr/local/bin/canflash",
	}
}

func testCatalog() *fakeCatalog {
	return &fakeCatalog{menus: map[string][]schema.Option{
		libMenu: {
			{ID: "CAN_LIB_TWAI", DisplayName: "TWAI driver"},
			{ID: "CAN_LIB_MCP2515", DisplayName: "MCP2515 driver"},
		},
		exampleMenu: {
			{ID: "EXAMPLE_SEND", DisplayName: "Send frames"},
			{ID: "EXAMPLE_RECEIVE_INTERRUPT", DisplayName: "Receive (interrupt)",
				DependsOn: []schema.OptionID{"CAN_LIB_MCP2515"}},
		},
	}}
}

func newTestService(factory *scriptedFactory, store *fakeStore) (*Service, *listSink) {
	sink := &listSink{}
	pipeline := NewPipeline(factory.factory, sink)
	sched := NewGoScheduler(context.Background())
	monitors := NewMonitorManager(serviceConfig(), factory.factory, sink, sched)
	svc := NewService(serviceConfig(), testCatalog(), store, pipeline, monitors)
	return svc, sink
}

func TestCheckDependencies(t *testing.T) {
	svc, _ := newTestService(&scriptedFactory{}, newFakeStore())
	cases := []struct {
		name    string
		lib     schema.OptionID
		example schema.OptionID
		want    bool
	}{
		{"free example with any lib", "CAN_LIB_TWAI", "EXAMPLE_SEND", true},
		{"dependent example with matching lib", "CAN_LIB_MCP2515", "EXAMPLE_RECEIVE_INTERRUPT", true},
		{"dependent example with wrong lib", "CAN_LIB_TWAI", "EXAMPLE_RECEIVE_INTERRUPT", false},
		{"unknown lib", "CAN_LIB_NOPE", "EXAMPLE_SEND", false},
		{"unknown example", "CAN_LIB_TWAI", "EXAMPLE_NOPE", false},
	}
	for _, tc := range cases {
		if got := svc.CheckDependencies(tc.lib, tc.example); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestUpdateSdkconfigEnablesSelection(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(&scriptedFactory{}, store)
	ctx := context.Background()

	if !svc.UpdateSdkconfig(ctx, "CAN_LIB_TWAI", "EXAMPLE_SEND") {
		t.Fatalf("update failed")
	}
	if store.values["CONFIG_CAN_LIB_TWAI"] != "y" || store.values["CONFIG_EXAMPLE_SEND"] != "y" {
		t.Fatalf("selection not enabled: %v", store.values)
	}
	if store.values["CONFIG_CAN_LIB_MCP2515"] != "n" || store.values["CONFIG_EXAMPLE_RECEIVE_INTERRUPT"] != "n" {
		t.Fatalf("other options not disabled: %v", store.values)
	}
	if store.writes != 1 {
		t.Fatalf("expected one write, got %d", store.writes)
	}

	// Same selection again: nothing changed, no write.
	if !svc.UpdateSdkconfig(ctx, "CAN_LIB_TWAI", "EXAMPLE_SEND") {
		t.Fatalf("no-op update failed")
	}
	if store.writes != 1 {
		t.Fatalf("unchanged config must not rewrite, got %d writes", store.writes)
	}
}

func TestUpdateSdkconfigRejectsIncompatible(t *testing.T) {
	store := newFakeStore()
	svc, _ := newTestService(&scriptedFactory{}, store)
	if svc.UpdateSdkconfig(context.Background(), "CAN_LIB_TWAI", "EXAMPLE_RECEIVE_INTERRUPT") {
		t.Fatalf("incompatible selection must fail")
	}
	if store.writes != 0 {
		t.Fatalf("rejected update must not write")
	}
}

func TestUpdateSdkconfigWriteFailure(t *testing.T) {
	store := newFakeStore()
	store.writeErr = errors.New("disk full")
	svc, _ := newTestService(&scriptedFactory{}, store)
	if svc.UpdateSdkconfig(context.Background(), "CAN_LIB_TWAI", "EXAMPLE_SEND") {
		t.Fatalf("write failure must fail the update")
	}
}

func TestConfigCompileFlashRunsPipeline(t *testing.T) {
	factory := &scriptedFactory{}
	store := newFakeStore()
	svc, sink := newTestService(factory, store)

	ok := svc.ConfigCompileFlash(context.Background(), "ttyACM0", "CAN_LIB_TWAI", "EXAMPLE_SEND")
	if !ok {
		t.Fatalf("workflow failed")
	}
	if len(factory.specs) != 2 {
		t.Fatalf("expected compile and flash runners, got %d", len(factory.specs))
	}
	if !strings.Contains(factory.specs[0].Command, "idf.py all") {
		t.Fatalf("unexpected compile command: %q", factory.specs[0].Command)
	}
	if !strings.Contains(factory.specs[1].Command, "idf.py -p /dev/ttyACM0 flash") {
		t.Fatalf("unexpected flash command: %q", factory.specs[1].Command)
	}
	joined := strings.Join(sink.snapshot(), "\n")
	if !strings.Contains(joined, "✅ update configuration") {
		t.Fatalf("missing config step marker: %q", joined)
	}
}

func TestConfigCompileFlashStopsMonitors(t *testing.T) {
	monitorRunner := &fakeRunner{result: true, block: make(chan struct{})}
	factory := &scriptedFactory{runners: []*fakeRunner{monitorRunner}}
	store := newFakeStore()
	svc, _ := newTestService(factory, store)

	if _, err := svc.Monitors().Start(context.Background(), "ttyACM0"); err != nil {
		t.Fatalf("monitor start: %v", err)
	}
	waitFor(t, "monitor runner", monitorRunner.IsRunning)

	if !svc.ConfigCompileFlash(context.Background(), "ttyACM0", "CAN_LIB_TWAI", "EXAMPLE_SEND") {
		t.Fatalf("workflow failed")
	}
	if len(svc.Monitors().Active()) != 0 {
		t.Fatalf("monitors must be stopped before flashing")
	}
}

func TestConfigCompileFlashShortCircuitsOnBadSelection(t *testing.T) {
	factory := &scriptedFactory{}
	svc, _ := newTestService(factory, newFakeStore())

	if svc.ConfigCompileFlash(context.Background(), "ttyACM0", "CAN_LIB_TWAI", "EXAMPLE_RECEIVE_INTERRUPT") {
		t.Fatalf("incompatible selection must fail the workflow")
	}
	if len(factory.specs) != 0 {
		t.Fatalf("compile must not run after config failure, got %d runners", len(factory.specs))
	}
}

func TestConfigCompileFlashFullCleanHook(t *testing.T) {
	factory := &scriptedFactory{}
	svc, _ := newTestService(factory, newFakeStore())
	svc.FullClean = func(ctx context.Context) bool { return true }

	if !svc.ConfigCompileFlash(context.Background(), "Port1", "CAN_LIB_TWAI", "EXAMPLE_SEND") {
		t.Fatalf("workflow failed")
	}
	if !strings.Contains(factory.specs[0].Command, "idf.py fullclean all") {
		t.Fatalf("full clean hook ignored: %q", factory.specs[0].Command)
	}
}

func TestResolveSelection(t *testing.T) {
	svc, _ := newTestService(&scriptedFactory{}, newFakeStore())

	lib, example, err := svc.ResolveSelection("CAN_LIB_TWAI", "EXAMPLE_SEND")
	if err != nil || lib != "CAN_LIB_TWAI" || example != "EXAMPLE_SEND" {
		t.Fatalf("resolve failed: %v %v %v", lib, example, err)
	}
	if _, _, err := svc.ResolveSelection("", "EXAMPLE_SEND"); !errors.Is(err, schema.ErrEmptySelection) {
		t.Fatalf("expected ErrEmptySelection, got %v", err)
	}
	if _, _, err := svc.ResolveSelection("CAN_LIB_NOPE", "EXAMPLE_SEND"); !errors.Is(err, schema.ErrOptionNotFound) {
		t.Fatalf("expected ErrOptionNotFound, got %v", err)
	}
	if _, _, err := svc.ResolveSelection("CAN_LIB_TWAI", "EXAMPLE_NOPE"); !errors.Is(err, schema.ErrOptionNotFound) {
		t.Fatalf("expected ErrOptionNotFound, got %v", err)
	}
}

func TestFindFlashPortsFallback(t *testing.T) {
	svc, _ := newTestService(&scriptedFactory{}, newFakeStore())
	ports := svc.FindFlashPorts()
	if len(ports) != 4 || ports[0] != "Port1" {
		t.Fatalf("expected simulated fallback, got %v", ports)
	}
	svc.DiscoverPorts = func() []schema.PortID { return []schema.PortID{"ttyACM0"} }
	ports = svc.FindFlashPorts()
	if len(ports) != 1 || ports[0] != "ttyACM0" {
		t.Fatalf("expected discovered ports, got %v", ports)
	}
}
