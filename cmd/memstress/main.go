// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/aristanetworks/goarista/monotime"
	"github.com/docopt/docopt-go"
	"github.com/gfxkit/memcore/memory"
	"golang.org/x/sync/errgroup"
)

const usage = `Memory allocator stress driver.
Usage:
  memstress -h | --help
  memstress [--allocator=KIND] [--lifetime=LT] [--workers=N] [--rounds=N]
            [--max-block=BYTES] [--limit=BYTES] [--seed=SEED] [--trace] [--json]
Options:
  -h --help          Show this screen.
  --allocator=KIND   Backing allocator: heap, arena or mmap [default: heap].
  --lifetime=LT      Lifetime the workload allocates under [default: medium-term].
  --workers=N        Number of concurrent workers [default: 4].
  --rounds=N         Rounds per worker [default: 2000].
  --max-block=BYTES  Largest single block a round may request [default: 65536].
  --limit=BYTES      Byte budget; rounds exceeding it count as rejected [default: 0].
  --seed=SEED        PRNG seed, 0 derives one from the clock [default: 0].
  --trace            Write one line per tracked allocator call to stderr.
  --json             Dump the tracker report as JSON to stdout.`

// sampleBlock is the bound-object shape of the workload: the vector member
// inherits the allocator the block is constructed with.
type sampleBlock struct {
	memory.Allocatable
	samples *memory.Vector[float32]
}

func main() {
	opts, _ := docopt.ParseDoc(usage)
	var config struct {
		Allocator string
		Lifetime  string
		Workers   string
		Rounds    string
		MaxBlock  string `docopt:"--max-block"`
		Limit     string
		Seed      string
		Trace     bool
		JSON      bool `docopt:"--json"`
	}
	opts.Bind(&config)

	workers := parsePositiveInt("--workers", config.Workers)
	rounds := parsePositiveInt("--rounds", config.Rounds)
	maxBlock := parsePositiveInt("--max-block", config.MaxBlock)
	limit, err := strconv.ParseInt(config.Limit, 10, 64)
	if err != nil || limit < 0 {
		fmt.Fprintln(os.Stderr, "error: --limit needs to be a non-negative byte count")
		os.Exit(1)
	}
	seed, err := strconv.ParseInt(config.Seed, 10, 64)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: --seed needs to be an integer")
		os.Exit(1)
	}
	if seed == 0 {
		seed = int64(monotime.Now())
	}

	lt, err := memory.ParseLifetime(config.Lifetime)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	backing, closeBacking, err := newBacking(config.Allocator)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	tracker := memory.NewFullTracker()
	tracked := memory.NewTrackedAllocator(backing)
	tracked.SetTracker(tracker)
	if config.Trace {
		tracker.SetTraceWriter(os.Stderr)
	}

	var top memory.Allocator = tracked
	if limit > 0 {
		top = memory.NewLimitAllocator(tracked, limit)
	}

	// The workload resolves its allocator through the process defaults, the
	// way allocator-aware code does.
	memory.SetDefaultAllocatorForLifetime(lt, top)

	var rejected int64
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		rng := rand.New(rand.NewSource(seed + int64(w)))
		g.Go(func() error {
			for r := 0; r < rounds; r++ {
				runRound(memory.DefaultAllocatorForLifetime(lt), rng, maxBlock,
					lt == memory.ShortTerm, &rejected)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if config.JSON {
		if err := tracker.DumpActive(os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	} else {
		fmt.Println("Tracker:", tracker.ID())
		fmt.Println("Allocator:", config.Allocator, "Lifetime:", lt)
		fmt.Println("Workers:", workers, "Rounds:", rounds, "Seed:", seed)
		fmt.Println("Allocations:", tracker.AllocationCount())
		fmt.Println("Deallocations:", tracker.DeallocationCount())
		fmt.Println("Allocated Bytes:", tracker.AllocatedBytes())
		fmt.Println("Deallocated Bytes:", tracker.DeallocatedBytes())
		if limit > 0 {
			fmt.Println("Budget:", limit, "Rejected Rounds:", atomic.LoadInt64(&rejected))
		}
	}

	exitCode := 0
	if leaks := tracker.CheckActive(); leaks > 0 {
		fmt.Fprintln(os.Stderr, "error:", leaks, "allocations still active after the run")
		exitCode = 1
	}
	if closeBacking != nil {
		if err := closeBacking(); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			exitCode = 1
		}
	}
	os.Exit(exitCode)
}

func parsePositiveInt(flag, val string) int {
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		fmt.Fprintln(os.Stderr, "error:", flag, "needs to be a positive integer")
		os.Exit(1)
	}
	return n
}

// newBacking builds the allocator the tracked allocator delegates to, plus an
// optional final cleanup.
func newBacking(kind string) (memory.Allocator, func() error, error) {
	switch kind {
	case "heap":
		return memory.NewGoAllocator(), nil, nil
	case "arena":
		arena := memory.NewArenaAllocator(nil, memory.DefaultArenaBlockSize)
		return arena, func() error { arena.Release(); return nil }, nil
	case "mmap":
		if a, closer, ok := newMmapBacking(); ok {
			return a, closer, nil
		}
		return nil, nil, fmt.Errorf("the mmap allocator is not available on this platform")
	}
	return nil, nil, fmt.Errorf("unknown allocator kind %q", kind)
}

// runRound performs one unit of workload against mem. Budget overruns are
// recovered and counted; cleanup runs through defers so a mid-round panic
// never strands a block.
func runRound(mem memory.Allocator, rng *rand.Rand, maxBlock int, wipeOK bool, rejected *int64) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(memory.OutOfMemoryError); ok {
				atomic.AddInt64(rejected, 1)
				return
			}
			panic(r)
		}
	}()

	switch rng.Intn(5) {
	case 0: // raw block with a grow in the middle
		b := mem.Allocate(1 + rng.Intn(maxBlock))
		defer func() { mem.Free(b) }()
		b[0], b[len(b)-1] = 0xA5, 0x5A
		b = mem.Reallocate(1+rng.Intn(maxBlock), b)

	case 1: // growable vector
		v := memory.NewVector[uint64](mem)
		defer v.Release()
		for i, n := 0, 16+rng.Intn(512); i < n; i++ {
			v.Append(rng.Uint64())
		}

	case 2: // scoped array, sometimes kept as a container
		s := memory.NewScopedAllocation[byte](mem, 1+rng.Intn(maxBlock))
		defer s.Release()
		items := s.Get()
		for i := range items {
			items[i] = byte(i)
		}
		if rng.Intn(2) == 0 {
			dc := s.TransferToDataContainer(wipeOK)
			defer dc.Release()
		}

	case 3: // owned copy container
		src := make([]byte, 1+rng.Intn(256))
		dc := memory.NewDataContainerCopy(src, 1, len(src), wipeOK, mem)
		if dc == nil {
			return
		}
		defer dc.Release()
		if wipeOK && rng.Intn(2) == 0 {
			dc.WipeData()
		}
		_ = dc.Bytes()

	case 4: // bound object whose member inherits the allocator
		blk := memory.New[sampleBlock](mem, func() *sampleBlock {
			return &sampleBlock{samples: memory.NewVector[float32](nil)}
		})
		defer blk.samples.Release()
		for i := 0; i < 32; i++ {
			blk.samples.Append(rng.Float32())
		}
	}
}
