package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smokyabdulrahman/jadwal-waybar/internal/cache"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/config"
	"github.com/smokyabdulrahman/jadwal-waybar/internal/display"
)

const (
	oneCity   = `{"status":true,"data":[{"id":"1301","lokasi":"KOTA JAKARTA"}]}`
	threeCity = `{"status":true,"data":[{"id":"1630","lokasi":"KOTA BOGOR"},{"id":"1631","lokasi":"KAB. BOGOR"},{"id":"1632","lokasi":"KOTA BOGOR BARU"}]}`
)

func scheduleBody() string {
	var rows []string
	for i := 1; i <= 31; i++ {
		rows = append(rows, fmt.Sprintf(
			`{"tanggal":"Hari, %02d/01/2024","imsak":"04:13","subuh":"04:23","terbit":"05:45","dhuha":"06:13","dzuhur":"11:59","ashar":"15:25","maghrib":"18:11","isya":"19:26","date":"2024-01-%02d"}`,
			i, i))
	}
	return `{"status":true,"data":{"id":1301,"lokasi":"KOTA JAKARTA","daerah":"DKI JAKARTA",` +
		`"koordinat":{"lat":-6.1805,"lon":106.8284,"lintang":"6° 10' LS","bujur":"106° 49' BT"},` +
		`"jadwal":[` + strings.Join(rows, ",") + `]}}`
}

// setup isolates config, cache and clock, and starts a fake API.
// It returns the API base URL.
func setup(t *testing.T, search string, status int) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	for _, key := range config.ValidKeys {
		t.Setenv(config.EnvName(key), "")
	}
	display.SetEnabled(false)

	saved := now
	now = func() time.Time { return time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = saved })

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/sholat/kota/cari/") {
			fmt.Fprint(w, search)
			return
		}
		fmt.Fprint(w, scheduleBody())
	}))
	t.Cleanup(server.Close)
	return server.URL
}

// execute runs the root command in-process.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func decodeWidget(t *testing.T, out string) map[string]string {
	t.Helper()
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("widget output should be one line, got %q", out)
	}
	var payload map[string]string
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("widget output is not JSON: %v\n%s", err, out)
	}
	return payload
}

func TestWidget_Ready(t *testing.T) {
	url := setup(t, oneCity, 0)

	out, _, err := execute(t, "--city", "Jakarta", "--api-url", url)
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}

	payload := decodeWidget(t, out)
	if payload["text"] != "Ashar, 15:25" {
		t.Errorf("text = %q, want %q", payload["text"], "Ashar, 15:25")
	}
	if !strings.Contains(payload["tooltip"], "Prayer Times Today") {
		t.Errorf("tooltip = %q", payload["tooltip"])
	}
}

func TestWidget_IndonesianAndFormat(t *testing.T) {
	url := setup(t, oneCity, 0)

	out, _, err := execute(t, "-c", "Jakarta", "--api-url", url, "--lang", "id", "--format", "full")
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}

	payload := decodeWidget(t, out)
	if payload["text"] != "Ashar, 15:25 (2h 25m)" {
		t.Errorf("text = %q", payload["text"])
	}
	if !strings.Contains(payload["tooltip"], "Jadwal Sholat Hari Ini") {
		t.Errorf("tooltip = %q", payload["tooltip"])
	}
}

func TestWidget_APIFailureExitsCleanly(t *testing.T) {
	url := setup(t, "", http.StatusBadGateway)

	out, _, err := execute(t, "--city", "Jakarta", "--api-url", url)
	if err != nil {
		t.Fatalf("widget failures should not be command errors, got: %v", err)
	}

	payload := decodeWidget(t, out)
	if payload["text"] != "API Failed!" {
		t.Errorf("text = %q, want %q", payload["text"], "API Failed!")
	}
}

func TestWidget_MultipleCitiesThenIndex(t *testing.T) {
	url := setup(t, threeCity, 0)

	out, _, err := execute(t, "--city", "Bogor", "--api-url", url)
	if err != nil {
		t.Fatal(err)
	}
	if payload := decodeWidget(t, out); payload["text"] != "Multiple cities are Detected!" {
		t.Errorf("text = %q", payload["text"])
	}

	// Judge freshness against the test clock.
	path, err := cache.DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, now(), now()); err != nil {
		t.Fatal(err)
	}

	out, _, err = execute(t, "--city", "Bogor", "--cityid", "1", "--api-url", url)
	if err != nil {
		t.Fatal(err)
	}
	if payload := decodeWidget(t, out); payload["text"] != "Ashar, 15:25" {
		t.Errorf("text = %q", payload["text"])
	}
}

func TestWidget_NoCity(t *testing.T) {
	setup(t, oneCity, 0)

	_, _, err := execute(t)
	if !errors.Is(err, errNoCity) {
		t.Errorf("error = %v, want errNoCity", err)
	}
}

func TestWidget_InvalidLang(t *testing.T) {
	setup(t, oneCity, 0)

	_, _, err := execute(t, "--city", "Jakarta", "--lang", "fr")
	if err == nil || !strings.Contains(err.Error(), "--lang") {
		t.Errorf("error = %v, want invalid --lang", err)
	}
}

func TestWidget_CorruptConfigFile(t *testing.T) {
	url := setup(t, oneCity, 0)
	path, err := config.Path()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "--city", "Jakarta", "--api-url", url)
	if err != nil {
		t.Fatalf("widget should report a broken config on stdout, got error: %v", err)
	}
	payload := decodeWidget(t, out)
	if payload["text"] != "Config Error" {
		t.Errorf("text = %q, want %q", payload["text"], "Config Error")
	}
	if !strings.Contains(payload["tooltip"], "invalid config file") {
		t.Errorf("tooltip = %q", payload["tooltip"])
	}

	// Subcommands still fail, except the ones that repair the config.
	if _, _, err := execute(t, "cache", "path"); err == nil {
		t.Error("cache path should fail on a broken config file")
	}
	if _, _, err := execute(t, "config", "reset"); err != nil {
		t.Fatalf("config reset should work on a broken config file: %v", err)
	}
	out, _, err = execute(t, "--city", "Jakarta", "--api-url", url)
	if err != nil {
		t.Fatal(err)
	}
	if got := decodeWidget(t, out)["text"]; got != "Ashar, 15:25" {
		t.Errorf("text after reset = %q", got)
	}
}

func TestWidget_InvalidEnvValue(t *testing.T) {
	url := setup(t, oneCity, 0)
	t.Setenv("JADWAL_TIMEOUT", "soon")

	out, _, err := execute(t, "--city", "Jakarta", "--api-url", url)
	if err != nil {
		t.Fatalf("widget should report a bad environment value on stdout, got error: %v", err)
	}
	payload := decodeWidget(t, out)
	if payload["text"] != "Config Error" {
		t.Errorf("text = %q, want %q", payload["text"], "Config Error")
	}
	if !strings.Contains(payload["tooltip"], "JADWAL_TIMEOUT") {
		t.Errorf("tooltip = %q, should name the variable", payload["tooltip"])
	}
}

func TestWidget_InvalidLogLevelInConfig(t *testing.T) {
	url := setup(t, oneCity, 0)
	path, err := config.Path()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"log_level":"loud"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "--city", "Jakarta", "--api-url", url)
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}
	payload := decodeWidget(t, out)
	if payload["text"] != "Config Error" || !strings.Contains(payload["tooltip"], "loud") {
		t.Errorf("payload = %v", payload)
	}
}

func TestWidget_CityFromEnv(t *testing.T) {
	url := setup(t, oneCity, 0)
	t.Setenv("JADWAL_CITY", "Jakarta")
	t.Setenv("JADWAL_API_URL", url)

	out, _, err := execute(t)
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}
	if payload := decodeWidget(t, out); payload["text"] != "Ashar, 15:25" {
		t.Errorf("text = %q", payload["text"])
	}
}

func TestWidget_DebugLogsGoToStderr(t *testing.T) {
	url := setup(t, oneCity, 0)

	out, errOut, err := execute(t, "--city", "Jakarta", "--api-url", url, "--log-level", "debug")
	if err != nil {
		t.Fatal(err)
	}
	decodeWidget(t, out)
	if !strings.Contains(errOut, "fetching monthly schedule") {
		t.Errorf("stderr should carry debug logs, got %q", errOut)
	}
}

func TestToday_JSON(t *testing.T) {
	url := setup(t, oneCity, 0)

	out, _, err := execute(t, "today", "--city", "Jakarta", "--api-url", url, "--json")
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}

	var got todayJSON
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if got.Next.Prayer != "ashar" || got.Next.Remaining != "2h 25m" {
		t.Errorf("next = %+v", got.Next)
	}
	if got.Timings["isya"] != "19:26" || len(got.Timings) != 8 {
		t.Errorf("timings = %v", got.Timings)
	}
	if got.Location.Name != "KOTA JAKARTA" || got.Tomorrow {
		t.Errorf("location = %+v, tomorrow = %v", got.Location, got.Tomorrow)
	}
}

func TestToday_Rich(t *testing.T) {
	url := setup(t, oneCity, 0)

	out, _, err := execute(t, "today", "--city", "Jakarta", "--api-url", url)
	if err != nil {
		t.Fatalf("execute error: %v", err)
	}
	if !strings.Contains(out, "<- next in 2h 25m") {
		t.Errorf("output missing countdown:\n%s", out)
	}
}

func TestToday_FailureIsError(t *testing.T) {
	url := setup(t, "", http.StatusInternalServerError)

	_, _, err := execute(t, "today", "--city", "Jakarta", "--api-url", url)
	if err == nil || !strings.Contains(err.Error(), "API Failed!") {
		t.Errorf("error = %v, want API Failed!", err)
	}
}

func TestMonth(t *testing.T) {
	url := setup(t, oneCity, 0)

	if _, _, err := execute(t, "--city", "Jakarta", "--api-url", url); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "month")
	if err != nil {
		t.Fatalf("month error: %v", err)
	}
	for _, want := range []string{"KOTA JAKARTA, DKI JAKARTA", "Maghrib", "Hari, 01/01/2024", "> Hari, 15/01/2024", "Hari, 31/01/2024"} {
		if !strings.Contains(out, want) {
			t.Errorf("month output missing %q", want)
		}
	}
}

func TestMonth_NoCache(t *testing.T) {
	setup(t, oneCity, 0)

	_, _, err := execute(t, "month")
	if !errors.Is(err, errNoSchedule) {
		t.Errorf("error = %v, want errNoSchedule", err)
	}
}

func TestMonth_CityList(t *testing.T) {
	url := setup(t, threeCity, 0)

	if _, _, err := execute(t, "--city", "Bogor", "--api-url", url); err != nil {
		t.Fatal(err)
	}
	_, _, err := execute(t, "month")
	if err == nil || !strings.Contains(err.Error(), "city list") {
		t.Errorf("error = %v, want city list error", err)
	}
}

func TestCities(t *testing.T) {
	url := setup(t, threeCity, 0)

	out, _, err := execute(t, "cities", "bogor", "--api-url", url)
	if err != nil {
		t.Fatalf("cities error: %v", err)
	}
	for _, want := range []string{"KOTA BOGOR", "KAB. BOGOR", "1632", "--cityid"} {
		if !strings.Contains(out, want) {
			t.Errorf("cities output missing %q:\n%s", want, out)
		}
	}
}

func TestCities_Selected(t *testing.T) {
	url := setup(t, threeCity, 0)

	out, _, err := execute(t, "cities", "bogor", "--api-url", url, "--cityid", "1")
	if err != nil {
		t.Fatalf("cities error: %v", err)
	}
	if !strings.Contains(out, "Selected: KAB. BOGOR") {
		t.Errorf("cities output should name the selected city:\n%s", out)
	}
	if strings.Contains(out, "Use --cityid") {
		t.Errorf("hint should be omitted once a city is selected:\n%s", out)
	}
}

func TestCities_NotFound(t *testing.T) {
	url := setup(t, `{"status":false}`, 0)

	_, _, err := execute(t, "cities", "atlantis", "--api-url", url)
	if err == nil || !strings.Contains(err.Error(), "no city matches") {
		t.Errorf("error = %v", err)
	}
}

func TestCache_PathAndClear(t *testing.T) {
	url := setup(t, oneCity, 0)
	cacheFile := filepath.Join(t.TempDir(), "custom.json")

	out, _, err := execute(t, "cache", "path", "--cache-file", cacheFile)
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != cacheFile {
		t.Errorf("cache path = %q, want %q", strings.TrimSpace(out), cacheFile)
	}

	if _, _, err := execute(t, "--city", "Jakarta", "--api-url", url, "--cache-file", cacheFile); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(cacheFile); err != nil {
		t.Fatalf("widget run should create the cache file: %v", err)
	}

	if _, _, err := execute(t, "cache", "clear", "--cache-file", cacheFile); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(cacheFile); !os.IsNotExist(err) {
		t.Error("cache clear should delete the file")
	}
}

func TestConfig_SetShowReset(t *testing.T) {
	setup(t, oneCity, 0)

	if _, _, err := execute(t, "config", "set", "city", "Bogor"); err != nil {
		t.Fatalf("config set error: %v", err)
	}

	out, _, err := execute(t, "config")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Bogor") {
		t.Errorf("config show missing value:\n%s", out)
	}

	if _, _, err := execute(t, "config", "set", "lang", "fr"); err == nil {
		t.Error("config set lang fr should fail")
	}

	if _, _, err := execute(t, "config", "reset"); err != nil {
		t.Fatal(err)
	}
	out, _, err = execute(t, "config")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "Bogor") {
		t.Errorf("config reset should clear values:\n%s", out)
	}
}

func TestEffectiveConfig_FlagBeatsConfig(t *testing.T) {
	url := setup(t, oneCity, 0)

	path, err := config.Path()
	if err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{City: "Nowhere", Lang: "id", APIURL: url}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "--city", "Jakarta", "--lang", "en")
	if err != nil {
		t.Fatal(err)
	}
	payload := decodeWidget(t, out)
	if !strings.Contains(payload["tooltip"], "Prayer Times Today") {
		t.Errorf("flag --lang en should win over config lang id: %q", payload["tooltip"])
	}
}

// buildBinary compiles the jadwal-waybar binary to a temp directory for testing.
func buildBinary(t *testing.T, ldflags string) string {
	t.Helper()
	binPath := filepath.Join(t.TempDir(), "jadwal-waybar")

	args := []string{"build"}
	if ldflags != "" {
		args = append(args, "-ldflags", ldflags)
	}
	args = append(args, "-o", binPath, "../../cmd/jadwal-waybar")

	cmd := exec.Command("go", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("build failed: %v\n%s", err, out)
	}
	return binPath
}

// TestVersionFlag verifies that --version prints the version string.
func TestVersionFlag(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary")
	}
	binPath := buildBinary(t, "-X main.version=v1.2.3-test")

	out, err := exec.Command(binPath, "--version").Output()
	if err != nil {
		t.Fatalf("--version failed: %v", err)
	}

	got := strings.TrimSpace(string(out))
	want := "jadwal-waybar version v1.2.3-test"
	if got != want {
		t.Errorf("--version = %q, want %q", got, want)
	}
}

// TestNoCity_ExitCode verifies that a missing city is the one non-zero exit.
func TestNoCity_ExitCode(t *testing.T) {
	if testing.Short() {
		t.Skip("builds the binary")
	}
	binPath := buildBinary(t, "")

	runCmd := exec.Command(binPath)
	runCmd.Env = append(os.Environ(), "XDG_CONFIG_HOME="+t.TempDir(), "JADWAL_CITY=")
	err := runCmd.Run()

	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		t.Fatalf("expected ExitError, got %T: %v", err, err)
	}
	if exitErr.ExitCode() != 1 {
		t.Errorf("exit code = %d, want 1", exitErr.ExitCode())
	}
}

// TestHelpFlag verifies that --help shows the expected subcommands.
func TestHelpFlag(t *testing.T) {
	setup(t, oneCity, 0)

	out, _, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("--help failed: %v", err)
	}
	for _, sub := range []string{"today", "month", "cities", "cache", "config"} {
		if !strings.Contains(out, sub) {
			t.Errorf("--help output missing subcommand %q", sub)
		}
	}
}
