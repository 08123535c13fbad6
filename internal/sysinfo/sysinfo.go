// Package sysinfo logs the host characteristics relevant to a Yocto build:
// disk headroom, CPU count and memory. Probed with stdlib syscalls since the
// numbers are informational only.
package sysinfo

import (
	"bufio"
	"fmt"
	"os"
	"runtime"
	"strings"
	"syscall"

	"github.com/zorak1103/pokybox/internal/runlog"
)

const gib = 1 << 30

// Log writes a system summary to the run log at startup. Probe failures are
// logged and never abort the run.
func Log(log *runlog.Logger) {
	log.Infof("Collecting system information...")
	log.Infof("OS: %s", runtime.GOOS)
	log.Infof("Architecture: %s", runtime.GOARCH)
	log.Infof("CPU Cores: %d", runtime.NumCPU())

	if total, free, err := diskUsage("/"); err == nil {
		log.Infof("Disk Total: %d GB", total/gib)
		log.Infof("Disk Free: %d GB", free/gib)
	} else {
		log.Warnf("Could not retrieve disk info: %v", err)
	}

	if mem, err := memTotal(); err == nil {
		log.Infof("RAM Total: %d GB", mem/gib)
	} else {
		log.Warnf("Could not retrieve RAM info: %v", err)
	}
}

func diskUsage(path string) (total, free uint64, err error) {
	var st syscall.Statfs_t
	if err := syscall.Statfs(path, &st); err != nil {
		return 0, 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	bsize := uint64(st.Bsize) // #nosec G115 -- block size is always positive
	return st.Blocks * bsize, st.Bavail * bsize, nil
}

func memTotal() (uint64, error) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}
		var kb uint64
		if _, err := fmt.Sscanf(fields[1], "%d", &kb); err != nil {
			return 0, err
		}
		return kb * 1024, nil
	}
	return 0, fmt.Errorf("MemTotal not found in /proc/meminfo")
}
