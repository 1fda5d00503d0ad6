// Command heapalloc-bench is a demonstration CLI that replays a toy,
// line-oriented trace format against the heapalloc block manager and
// prints the resulting allocator statistics. It is not the scored test
// harness the allocator's specification treats as an external
// collaborator — there is no throughput/utilization scoring here, only a
// manual way to exercise the allocator against a directory of trace
// files, optionally watching that directory for files dropped in later.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unsafe"

	"github.com/Masterminds/semver/v3"
	"github.com/fsnotify/fsnotify"

	"github.com/orizon-lang/heapalloc"
)

// traceConstraint accepts the trace-format major version (1) this replayer
// understands. A trace declaring any other major is rejected outright; a
// higher minor/patch within the same major is accepted, mirroring the
// teacher's own "gate on incompatible major, tolerate newer minor/patch"
// toolchain-compatibility policy.
var traceConstraint = mustConstraint("^1.0.0")

func mustConstraint(s string) *semver.Constraints {
	c, err := semver.NewConstraint(s)
	if err != nil {
		panic(err)
	}
	return c
}

func main() {
	var (
		strategyName = flag.String("strategy", "nextfit", "free-index strategy: nextfit or segregated")
		chunkSize    = flag.Uint64("chunk", 4096, "minimum bytes requested per heap extension")
		cutoff       = flag.Uint64("cutoff", 100, "large-placement tail-placement threshold, in bytes")
		maxHeap      = flag.Uint64("max-heap", 64<<20, "maximum bytes the backing provider may reserve")
		checkEvery   = flag.Int("check-every", 0, "run CheckHeap after every N operations (0 disables)")
		watch        = flag.Bool("watch", false, "keep watching the trace directory for new *.trace files after the initial pass")
		verbose      = flag.Bool("verbose", false, "print each operation and CheckHeap's block walk")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] <trace-dir>\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Replays *.trace files in <trace-dir> against a heapalloc heap.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	dir := flag.Arg(0)

	strategy, err := parseStrategy(*strategyName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "heapalloc-bench:", err)
		os.Exit(1)
	}

	if err := heapalloc.Init(heapalloc.Config{
		Strategy:    strategy,
		MaxBytes:    uintptr(*maxHeap),
		ChunkSize:   uintptr(*chunkSize),
		LargeCutoff: uintptr(*cutoff),
	}); err != nil {
		fmt.Fprintln(os.Stderr, "heapalloc-bench: init:", err)
		os.Exit(1)
	}

	r := &replayer{
		live:       make(map[string]unsafe.Pointer),
		checkEvery: *checkEvery,
		verbose:    *verbose,
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "heapalloc-bench:", err)
		os.Exit(1)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".trace" {
			continue
		}
		if err := r.replayFile(filepath.Join(dir, e.Name())); err != nil {
			fmt.Fprintln(os.Stderr, "heapalloc-bench:", err)
			os.Exit(1)
		}
	}

	if *watch {
		if err := r.watchDir(dir); err != nil {
			fmt.Fprintln(os.Stderr, "heapalloc-bench:", err)
			os.Exit(1)
		}
	}

	stats := heapalloc.ManagerStats()
	fmt.Printf("operations: %d\n", r.ops)
	fmt.Printf("allocations: %d  frees: %d  active: %d  peak: %d\n",
		stats.AllocationCount, stats.FreeCount, stats.ActiveAllocations, stats.PeakAllocations)
	fmt.Printf("bytes in use: %d  heap size: %d\n", stats.BytesInUse, stats.HeapSize)

	if res := heapalloc.CheckHeap(*verbose); !res.OK() {
		fmt.Fprintln(os.Stderr, "heapalloc-bench: final CheckHeap found violations:")
		for _, e := range res.Errors {
			fmt.Fprintln(os.Stderr, " -", e)
		}
		os.Exit(1)
	}
}

func parseStrategy(name string) (heapalloc.Strategy, error) {
	switch strings.ToLower(name) {
	case "nextfit", "next-fit", "explicit":
		return heapalloc.StrategyNextFit, nil
	case "segregated", "segfit":
		return heapalloc.StrategySegregated, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q", name)
	}
}

// replayer holds the id -> live-payload-pointer mapping a trace file's
// operations refer back to; the allocator itself never sees these ids,
// only the raw Alloc/Free/Realloc calls.
type replayer struct {
	live       map[string]unsafe.Pointer
	ops        int
	checkEvery int
	verbose    bool
}

func (r *replayer) replayFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	versionChecked := false
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if strings.HasPrefix(line, "#version") {
			fields := strings.Fields(line)
			if len(fields) != 2 {
				return fmt.Errorf("%s:%d: malformed version header %q", path, lineNo, line)
			}
			v, err := semver.NewVersion(fields[1])
			if err != nil {
				return fmt.Errorf("%s:%d: bad version %q: %w", path, lineNo, fields[1], err)
			}
			if !traceConstraint.Check(v) {
				return fmt.Errorf("%s: trace version %s is incompatible with this replayer (requires %s)", path, v, traceConstraint)
			}
			versionChecked = true
			continue
		}
		if !versionChecked {
			return fmt.Errorf("%s:%d: trace file is missing its #version header", path, lineNo)
		}
		if err := r.applyLine(line); err != nil {
			return fmt.Errorf("%s:%d: %w", path, lineNo, err)
		}
		r.ops++
		if r.checkEvery > 0 && r.ops%r.checkEvery == 0 {
			if res := heapalloc.CheckHeap(false); !res.OK() {
				return fmt.Errorf("%s:%d: CheckHeap failed after operation %d: %v", path, lineNo, r.ops, res.Errors)
			}
		}
	}
	return scanner.Err()
}

func (r *replayer) applyLine(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	op, args := fields[0], fields[1:]

	if r.verbose {
		fmt.Printf("%s\n", line)
	}

	switch op {
	case "a":
		if len(args) != 2 {
			return fmt.Errorf("alloc needs <id> <size>, got %q", line)
		}
		size, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("bad size %q: %w", args[1], err)
		}
		p := heapalloc.Alloc(uintptr(size))
		if p == nil {
			return fmt.Errorf("alloc(%d) returned nil (out of memory)", size)
		}
		r.live[args[0]] = p

	case "f":
		if len(args) != 1 {
			return fmt.Errorf("free needs <id>, got %q", line)
		}
		p, ok := r.live[args[0]]
		if !ok {
			return fmt.Errorf("free of unknown id %q", args[0])
		}
		heapalloc.Free(p)
		delete(r.live, args[0])

	case "r":
		if len(args) != 2 {
			return fmt.Errorf("realloc needs <id> <size>, got %q", line)
		}
		p, ok := r.live[args[0]]
		if !ok {
			return fmt.Errorf("realloc of unknown id %q", args[0])
		}
		size, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("bad size %q: %w", args[1], err)
		}
		q := heapalloc.Realloc(p, uintptr(size))
		if q == nil && size != 0 {
			return fmt.Errorf("realloc(%s, %d) returned nil (out of memory)", args[0], size)
		}
		if size == 0 {
			delete(r.live, args[0])
		} else {
			r.live[args[0]] = q
		}

	default:
		return fmt.Errorf("unknown operation %q", op)
	}
	return nil
}

// watchDir replays any *.trace file created or written in dir after the
// initial directory scan, until the watcher's channel is closed. A file is
// replayed again on every such event it receives.
func (r *replayer) watchDir(dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("fsnotify: watch %s: %w", dir, err)
	}

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if filepath.Ext(ev.Name) != ".trace" {
				continue
			}
			if err := r.replayFile(ev.Name); err != nil {
				fmt.Fprintln(os.Stderr, "heapalloc-bench:", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintln(os.Stderr, "heapalloc-bench: watch error:", err)
		}
	}
}
