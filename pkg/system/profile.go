package system

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Profile describes the host a diagnostic run executes on. The farm's
// overlay builder needs a Linux kernel that knows overlayfs, so that
// capability is detected here instead of being inferred from the
// distro name.
type Profile struct {
	OS      string
	Distro  string
	Version string
	Kernel  string
	Arch    string
	WSL     bool
	Overlay bool
}

// Detect builds the host profile. Fields that cannot be determined are
// left empty rather than failing the probe.
func Detect() *Profile {
	p := &Profile{
		OS:   runtime.GOOS,
		Arch: detectArch(),
	}

	switch runtime.GOOS {
	case "linux":
		p.Distro, p.Version = parseOSRelease("/etc/os-release")
		p.Kernel, _ = uname("-r")
		p.WSL = isWSL()
		p.Overlay = supportsOverlay("/proc/filesystems")
	case "darwin":
		p.Distro = "macos"
		if version, err := swVers("-productVersion"); err == nil {
			p.Version = version
		}
		p.Kernel, _ = uname("-r")
	}
	return p
}

// String renders the profile as one line, e.g.
// "linux ubuntu 22.04 (kernel 6.8.0-49-generic, x86_64)".
func (p *Profile) String() string {
	parts := []string{p.OS}
	if p.Distro != "" && p.Distro != p.OS {
		parts = append(parts, p.Distro)
	}
	if p.Version != "" {
		parts = append(parts, p.Version)
	}
	desc := strings.Join(parts, " ")

	var extra []string
	if p.Kernel != "" {
		extra = append(extra, "kernel "+p.Kernel)
	}
	if p.Arch != "" {
		extra = append(extra, p.Arch)
	}
	if p.WSL {
		extra = append(extra, "WSL")
	}
	if len(extra) > 0 {
		desc += " (" + strings.Join(extra, ", ") + ")"
	}
	return desc
}

func parseOSRelease(path string) (string, string) {
	file, err := os.Open(path)
	if err != nil {
		return "", ""
	}
	defer file.Close()

	var distro, version string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "ID=") {
			distro = trimValue(strings.TrimPrefix(line, "ID="))
		}
		if strings.HasPrefix(line, "VERSION_ID=") {
			version = trimValue(strings.TrimPrefix(line, "VERSION_ID="))
		}
	}
	return distro, version
}

func trimValue(val string) string {
	return strings.Trim(val, "\"'")
}

func uname(arg string) (string, error) {
	out, err := exec.Command("uname", arg).Output()
	if err != nil {
		return "", fmt.Errorf("uname %s: %w", arg, err)
	}
	return strings.TrimSpace(string(out)), nil
}

func swVers(arg string) (string, error) {
	out, err := exec.Command("sw_vers", arg).Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

func detectArch() string {
	if out, err := uname("-m"); err == nil {
		return out
	}
	return runtime.GOARCH
}

func isWSL() bool {
	if os.Getenv("WSL_DISTRO_NAME") != "" {
		return true
	}
	data, err := os.ReadFile("/proc/version")
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(string(data)), "microsoft")
}

// supportsOverlay reports whether the kernel's filesystem table lists
// overlay. Lines look like "nodev\toverlay"; the filesystem name is
// the last field.
func supportsOverlay(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 0 && fields[len(fields)-1] == "overlay" {
			return true
		}
	}
	return false
}
