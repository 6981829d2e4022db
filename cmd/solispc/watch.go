//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

// fileWatcher recompiles on every save, adapted from the root package's
// inotify-based watcher: one file at a time, debounced so a single save
// (which often fires both IN_MODIFY and IN_CLOSE_WRITE) triggers a single
// recompile rather than two.
type fileWatcher struct {
	fd       int
	path     string
	wd       int
	mu       sync.Mutex
	debounce *time.Timer
	onChange func(string)
}

func newFileWatcher(path string, onChange func(string)) (*fileWatcher, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("inotify_init failed: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}

	wd, err := unix.InotifyAddWatch(fd, absPath, unix.IN_MODIFY|unix.IN_CLOSE_WRITE)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("failed to watch %s: %w", absPath, err)
	}

	return &fileWatcher{fd: fd, path: absPath, wd: wd, onChange: onChange}, nil
}

func (fw *fileWatcher) run() {
	buf := make([]byte, unix.SizeofInotifyEvent*10)

	for {
		n, err := unix.Read(fw.fd, buf)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			fmt.Fprintf(os.Stderr, "watch: error reading inotify events: %v\n", err)
			continue
		}

		offset := 0
		for offset < n {
			event := (*unix.InotifyEvent)(unsafe.Pointer(&buf[offset]))
			offset += unix.SizeofInotifyEvent + int(event.Len)

			if event.Mask&(unix.IN_MODIFY|unix.IN_CLOSE_WRITE) != 0 {
				fw.debouncedCallback()
			}
		}
	}
}

func (fw *fileWatcher) debouncedCallback() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.debounce != nil {
		fw.debounce.Stop()
	}
	fw.debounce = time.AfterFunc(300*time.Millisecond, func() {
		fw.onChange(fw.path)
	})
}

func (fw *fileWatcher) close() error {
	return unix.Close(fw.fd)
}

func cmdWatch(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: solispc watch <program.json> [-O level] [-vc mode]")
	}
	path := args[0]
	compileArgs := args

	recompile := func(changed string) {
		fmt.Printf("--- recompiling %s ---\n", changed)
		if err := cmdCompile(compileArgs); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	recompile(path)

	fw, err := newFileWatcher(path, recompile)
	if err != nil {
		return err
	}
	defer fw.close()

	fmt.Printf("watching %s for changes (ctrl-c to stop)\n", path)
	fw.run()
	return nil
}
