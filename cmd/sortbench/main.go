// sortbench reproduces the original exercise's own CLI shape: read one
// integer-per-line-or-whitespace file per argument, quicksort each under a
// shared latency budget via the coroutine scheduler, merge the sorted
// outputs, and print per-worker switch counts and CPU time the way the
// reference implementation's own main() did with printf.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"sysprog-lab/internal/coro"
)

func readInts(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Split(bufio.ScanWords)
	var out []int
	for sc.Scan() {
		n, err := strconv.Atoi(sc.Text())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		out = append(out, n)
	}
	return out, sc.Err()
}

func main() {
	targetLatencyUs := flag.Int64("target-latency-us", 2000, "target wall-clock latency for the whole batch, in microseconds")
	flag.Parse()

	paths := flag.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: sortbench [-target-latency-us N] file...")
		os.Exit(2)
	}

	datasets := make([][]int, len(paths))
	for i, p := range paths {
		data, err := readInts(p)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		datasets[i] = data
	}

	sched := coro.NewScheduler(time.Duration(*targetLatencyUs) * time.Microsecond)
	tasks := make([]*coro.Task, len(datasets))
	pathOf := make(map[*coro.Task]string, len(tasks))
	for i, data := range datasets {
		tasks[i] = sched.Spawn(coro.QuickSortTask(data), nil)
		pathOf[tasks[i]] = paths[i]
	}

	// sched.Run() drives the scheduler from its own goroutine; this one
	// reports each worker as it finishes via coro.WaitAny, the same
	// wait_any() the excluded sort-driver glue would call against a live
	// scheduler rather than blocking until every worker is done at once.
	start := time.Now()
	runDone := make(chan struct{})
	go func() {
		sched.Run()
		close(runDone)
	}()

	remaining := append([]*coro.Task(nil), tasks...)
	for len(remaining) > 0 {
		t := coro.WaitAny(remaining)
		fmt.Printf("%s: switches=%d work_time_us=%d\n", pathOf[t], t.SwitchCount(), t.WorkTime().Microseconds())
		for i, r := range remaining {
			if r == t {
				remaining = append(remaining[:i], remaining[i+1:]...)
				break
			}
		}
	}
	<-runDone
	elapsed := time.Since(start)

	merged := coro.MergeSorted(datasets)
	out, err := os.Create("result.txt")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer out.Close()
	w := bufio.NewWriter(out)
	for i, v := range merged {
		if i > 0 {
			w.WriteByte(' ')
		}
		fmt.Fprintf(w, "%d", v)
	}
	w.WriteByte('\n')
	w.Flush()

	fmt.Printf("elapsed=%s result=result.txt\n", elapsed)
}
