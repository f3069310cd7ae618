package diff

import (
	"testing"

	"github.com/spf13/afero"

	"github.com/example/d365-switch-workspace/internal/d365ws/config"
	"github.com/example/d365-switch-workspace/internal/d365ws/paths"
	"github.com/example/d365-switch-workspace/internal/d365ws/storage"
	"github.com/example/d365-switch-workspace/internal/d365ws/xmlconf"
)

func webConfig(metadataDir string, includeBinDir bool) string {
	doc := `<configuration><appSettings>
  <add key="Aos.MetadataDirectory" value="` + metadataDir + `" />
  <add key="Aos.PackageDirectory" value="` + metadataDir + `" />
`
	if includeBinDir {
		doc += `  <add key="bindir" value="` + metadataDir + `" />
`
	}
	doc += `  <add key="Common.BinDir" value="` + metadataDir + `" />
  <add key="Microsoft.Dynamics.AX.AosConfig.AzureConfig.bindir" value="` + metadataDir + `" />
  <add key="Common.DevToolsBinDir" value="` + metadataDir + `/bin" />
</appSettings></configuration>`
	return doc
}

func newTestService(t *testing.T, live, backup string) *Service {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/webroot/web.config", []byte(live), 0o644); err != nil {
		t.Fatalf("setup live: %v", err)
	}
	if err := afero.WriteFile(fs, "/backups/web.config", []byte(backup), 0o644); err != nil {
		t.Fatalf("setup backup: %v", err)
	}
	st := storage.New(fs)
	resolver := paths.New(st, "/home/user", "/home/user/AppData/Local")
	cfg := config.Config{Webroot: "/webroot"}
	return New(st, resolver, cfg)
}

func TestCompareMatchingValues(t *testing.T) {
	svc := newTestService(t, webConfig("/ws/Metadata", true), webConfig("/ws/Metadata", true))

	entries, err := svc.Compare("/backups")
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(entries) != len(xmlconf.SettingKeys) {
		t.Fatalf("expected %d entries, got %d", len(xmlconf.SettingKeys), len(entries))
	}
	for _, entry := range entries {
		if !entry.Match {
			t.Errorf("%s: expected matching values, got %q vs %q", entry.Key, entry.Current, entry.Backup)
		}
	}
}

func TestCompareDifferingValues(t *testing.T) {
	svc := newTestService(t, webConfig("/ws-a/Metadata", true), webConfig("/ws-b/Metadata", true))

	entries, err := svc.Compare("/backups")
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	for _, entry := range entries {
		if entry.Match {
			t.Errorf("%s: expected differing values", entry.Key)
		}
		if !entry.CurrentFound || !entry.BackupFound {
			t.Errorf("%s: both sides should be present", entry.Key)
		}
	}
}

func TestCompareReportsAbsence(t *testing.T) {
	svc := newTestService(t, webConfig("/ws/Metadata", false), webConfig("/ws/Metadata", true))

	entries, err := svc.Compare("/backups")
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	for _, entry := range entries {
		if entry.Key != xmlconf.KeyBinDir {
			continue
		}
		if entry.CurrentFound {
			t.Error("bindir should be absent from the live file")
		}
		if !entry.BackupFound {
			t.Error("bindir should be present in the backup file")
		}
		if entry.Match {
			t.Error("an absent setting cannot match")
		}
	}
}

func TestCompareMutatesNothing(t *testing.T) {
	live := webConfig("/ws-a/Metadata", true)
	backup := webConfig("/ws-b/Metadata", true)
	svc := newTestService(t, live, backup)

	if _, err := svc.Compare("/backups"); err != nil {
		t.Fatalf("Compare failed: %v", err)
	}

	data, err := svc.st.ReadFile("/webroot/web.config")
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != live {
		t.Error("live web config was modified by a compare")
	}
}
