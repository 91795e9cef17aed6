package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"pixelwatch/internal/deps"
	"pixelwatch/internal/driver"
	"pixelwatch/internal/imagecmp"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDriverBinary verifies the WebDriver executable resolves and answers --version.
func CheckDriverBinary(ctx context.Context, binary string) Result {
	const name = "WebDriver"

	status := deps.CheckBinaries([]deps.Requirement{{
		Name:        name,
		Command:     binary,
		Description: "Required to drive one browser per session",
	}})[0]
	if !status.Available {
		return Result{Name: name, Detail: status.Detail}
	}
	version, err := deps.Version(ctx, status.Command)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", status.Command, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", status.Command, version)}
}

// CheckLoopbackPort verifies an ephemeral loopback port can be allocated.
func CheckLoopbackPort() Result {
	const name = "Loopback ports"

	port, err := driver.AllocatePort()
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("allocated 127.0.0.1:%d", port)}
}

// CheckBaseline verifies the baseline image is readable and decodes as PNG.
func CheckBaseline(path string) Result {
	const name = "Baseline image"

	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	grid, err := imagecmp.Decode(data)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	w, h := grid.Size()
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%dx%d)", path, w, h)}
}

// CheckEndpoint verifies the application under test answers HTTP requests.
func CheckEndpoint(ctx context.Context, endpoint string) Result {
	const name = "Target endpoint"

	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", endpoint, err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (unreachable: %v)", endpoint, err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return Result{Name: name, Detail: fmt.Sprintf("%s (status %d)", endpoint, resp.StatusCode)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (status %d)", endpoint, resp.StatusCode)}
}
