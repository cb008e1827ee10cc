// cmd/vesper-sim/main.go
package main

import (
	"crypto/ed25519"
	"encoding/binary"
	"fmt"
	"log"
	"math/rand"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/attilabuti/eventemitter/v2"
	"github.com/ssd-technologies/vesper/routing"
)

const (
	defaultRingNodes  = 18
	defaultRingBucket = 5
	defaultChurnOps   = 2500
	defaultWorkers    = 4
	defaultBucket     = 16
	addrPoolSize      = 32
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: vesper-sim <ring|churn>")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "ring":
		cmdRing()
	case "churn":
		cmdChurn()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		fmt.Println("Usage: vesper-sim <ring|churn>")
		os.Exit(1)
	}
}

// cmdRing builds a table for a ring of sequentially numbered nodes and
// prints the bucket census plus one closest-contact query. Sequential IDs
// make the distance structure fully predictable, which is useful when
// eyeballing routing behavior.
func cmdRing() {
	args := os.Args[2:]
	nodes := parseIntFlag(args, "--nodes", defaultRingNodes)
	bucket := parseIntFlag(args, "--bucket", defaultRingBucket)
	target := parseIntFlag(args, "--target", 4)
	limit := parseIntFlag(args, "--limit", bucket)

	if nodes < 2 || nodes > 4096 {
		fmt.Fprintf(os.Stderr, "Error: --nodes must be between 2 and 4096, got %d\n", nodes)
		os.Exit(1)
	}
	if bucket < 1 {
		fmt.Fprintf(os.Stderr, "Error: --bucket must be positive, got %d\n", bucket)
		os.Exit(1)
	}
	if target < 0 || target >= nodes {
		fmt.Fprintf(os.Stderr, "Error: --target must name a ring position below %d, got %d\n", nodes, target)
		os.Exit(1)
	}

	// 1. Build the ring. Node 0 is the local node; every other position is
	// touched once, in order.
	rt := routing.NewRoutingTable(ringNodeID(0), bucket)
	signals := 0
	for i := 1; i < nodes; i++ {
		contact := routing.NewContact(ringNodeID(uint64(i)), ringAddr(i))
		if _, over := rt.Touch(contact); over {
			signals++
		}
	}

	// 2. Census.
	fmt.Printf("Ring of %d nodes, local node 0, bucket capacity %d\n", nodes, bucket)
	fmt.Printf("Tracked contacts: %d\n", rt.Len())
	if signals > 0 {
		fmt.Printf("Eviction candidates signalled: %d (left unresolved)\n", signals)
	}

	fmt.Println("\nDistance class census:")
	for _, class := range rt.Distances() {
		members := rt.ContactsAt(class)
		fmt.Printf("  class %3d: %4d contacts", class, len(members))
		if len(members) <= 8 {
			positions := make([]string, len(members))
			for i, c := range members {
				positions[i] = strconv.FormatUint(ringPosition(c.ID), 10)
			}
			fmt.Printf("  [%s]", strings.Join(positions, " "))
		}
		fmt.Println()
	}

	// 3. One ranked query against the ring.
	targetID := ringNodeID(uint64(target))
	fmt.Printf("\nClosest %d contacts to node %d:\n", limit, target)
	for rank, c := range rt.ClosestN(targetID, limit) {
		fmt.Printf("  %2d. node %-5d class %-3d %s\n",
			rank+1, ringPosition(c.ID), routing.Log2Distance(c.ID, targetID), c.Addr)
	}
}

// churnCounters aggregates what the churn workers did.
type churnCounters struct {
	discovered      atomic.Int64
	retouched       atomic.Int64
	rebindsRejected atomic.Int64
	departed        atomic.Int64
	signals         atomic.Int64
	evicted         atomic.Int64
	retained        atomic.Int64
}

// cmdChurn drives a shared table from several workers with a randomized mix
// of discoveries, re-touches, re-binding attempts, and departures, then
// prints what the table looks like afterwards. Identities are derived from
// freshly generated Ed25519 keys, so the key space fills the way it does in
// a live mesh.
func cmdChurn() {
	args := os.Args[2:]
	ops := parseIntFlag(args, "--ops", defaultChurnOps)
	workers := parseIntFlag(args, "--workers", defaultWorkers)
	bucket := parseIntFlag(args, "--bucket", defaultBucket)
	seed := parseSeed(args)
	events := hasFlag(args, "--events")

	if ops < 1 || workers < 1 || bucket < 1 {
		fmt.Fprintln(os.Stderr, "Error: --ops, --workers and --bucket must be positive")
		os.Exit(1)
	}

	table := routing.NewSharedTable(routing.RandomNodeID(), bucket)

	if events {
		em := eventemitter.New()
		em.On(routing.EventConflict, func(existing, rejected routing.Contact) {
			log.Printf("conflict: %s rejected, %s keeps the binding", rejected, existing)
		})
		em.On(routing.EventEvictable, func(c routing.Contact) {
			log.Printf("evictable: %s is the least recently seen of a full bucket", c)
		})
		em.On(routing.EventRemoved, func(c routing.Contact) {
			log.Printf("removed: %s", c)
		})
		table.SetEmitter(em)
	}

	pool := buildAddrPool()
	counters := &churnCounters{}

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go churnWorker(table, pool, seed+int64(w), ops, counters, &wg)
	}
	wg.Wait()

	fmt.Printf("Churn complete: %d workers x %d ops (seed %d)\n", workers, ops, seed)
	fmt.Printf("  discovered:       %6d\n", counters.discovered.Load())
	fmt.Printf("  re-touched:       %6d\n", counters.retouched.Load())
	fmt.Printf("  rebinds rejected: %6d\n", counters.rebindsRejected.Load())
	fmt.Printf("  departed:         %6d\n", counters.departed.Load())
	fmt.Printf("  eviction signals: %6d (evicted %d, retained %d)\n",
		counters.signals.Load(), counters.evicted.Load(), counters.retained.Load())

	fmt.Printf("\nTable: %d contacts across %d distance classes\n", table.Len(), len(table.Distances()))

	// Knock out one shared endpoint, the way a dead host would be swept.
	swept := pool[0]
	before := table.Len()
	table.RemoveAddress(swept)
	fmt.Printf("Address sweep %s: removed %d contacts\n", swept, before-table.Len())

	table.Cleanup()
	fmt.Printf("After cleanup: %d distance classes\n", len(table.Distances()))

	// One ranked lookup against the churned table.
	targetID := routing.RandomNodeID()
	closest := table.ClosestN(targetID, 8)
	fmt.Printf("\nClosest %d contacts to %s:\n", len(closest), targetID.Hex()[:16])
	for rank, c := range closest {
		fmt.Printf("  %2d. class %-3d %s\n", rank+1, routing.Log2Distance(c.ID, targetID), c)
	}
}

// churnWorker runs one deterministic op stream against the shared table.
// Each worker owns the contacts it discovered; eviction candidates may
// belong to any worker.
func churnWorker(table *routing.SharedTable, pool []netip.AddrPort, seed int64, ops int, counters *churnCounters, wg *sync.WaitGroup) {
	defer wg.Done()
	r := rand.New(rand.NewSource(seed))
	var live []routing.Contact

	// resolve plays the verifying caller: a coin flip decides whether the
	// signalled candidate is still alive.
	resolve := func(candidate routing.Contact, over bool) {
		if !over {
			return
		}
		counters.signals.Add(1)
		if r.Intn(2) == 0 {
			table.Remove(candidate)
			counters.evicted.Add(1)
		} else {
			counters.retained.Add(1)
		}
	}

	for i := 0; i < ops; i++ {
		roll := r.Float64()
		switch {
		case roll < 0.55 || len(live) == 0:
			// Discover a new peer.
			pub, _, err := ed25519.GenerateKey(r)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: generating identity key: %v\n", err)
				os.Exit(1)
			}
			contact := routing.NewContact(routing.NodeIDFromPublicKey(pub), pool[r.Intn(len(pool))])
			resolve(table.Touch(contact))
			live = append(live, contact)
			counters.discovered.Add(1)

		case roll < 0.70:
			// Hear from a known peer again.
			resolve(table.Touch(live[r.Intn(len(live))]))
			counters.retouched.Add(1)

		case roll < 0.80:
			// An impostor claims a live identity from another address.
			victim := live[r.Intn(len(live))]
			ai := r.Intn(len(pool))
			if pool[ai] == victim.Addr {
				ai = (ai + 1) % len(pool)
			}
			impostor := routing.NewContact(victim.ID, pool[ai])
			if table.Conflicts(impostor) {
				counters.rebindsRejected.Add(1)
			}
			table.Touch(impostor)

		default:
			// A known peer departs.
			idx := r.Intn(len(live))
			contact := live[idx]
			live[idx] = live[len(live)-1]
			live = live[:len(live)-1]
			resolve(table.Remove(contact))
			counters.departed.Add(1)
		}
	}
}

// buildAddrPool returns a fixed set of endpoints shared by the simulated
// peers, small enough that address sweeps have something to sweep.
func buildAddrPool() []netip.AddrPort {
	pool := make([]netip.AddrPort, addrPoolSize)
	for i := range pool {
		pool[i] = netip.MustParseAddrPort(fmt.Sprintf("10.0.%d.%d:%d", 1+i/8, 1+i%8, 4000+i))
	}
	return pool
}

// ringNodeID returns the NodeID for a ring position: the position held in
// the lowest bytes of the ID, big-endian.
func ringNodeID(n uint64) routing.NodeID {
	var id routing.NodeID
	binary.BigEndian.PutUint64(id[routing.IDLength-8:], n)
	return id
}

// ringPosition recovers the ring position from a ring NodeID.
func ringPosition(id routing.NodeID) uint64 {
	return binary.BigEndian.Uint64(id[routing.IDLength-8:])
}

func ringAddr(i int) netip.AddrPort {
	return netip.MustParseAddrPort(fmt.Sprintf("127.0.0.1:%d", 4000+i))
}

// parseSeed reads --seed, falling back to VESPER_SIM_SEED so CI runs can be
// reproduced without editing the invocation.
func parseSeed(args []string) int64 {
	for i, arg := range args {
		if arg == "--seed" && i+1 < len(args) {
			return int64(parseIntValue("--seed", args[i+1]))
		}
		if strings.HasPrefix(arg, "--seed=") {
			return int64(parseIntValue("--seed", strings.TrimPrefix(arg, "--seed=")))
		}
	}
	if env := os.Getenv("VESPER_SIM_SEED"); env != "" {
		return int64(parseIntValue("VESPER_SIM_SEED", env))
	}
	return 1
}

func parseIntFlag(args []string, name string, def int) int {
	for i, arg := range args {
		if arg == name && i+1 < len(args) {
			return parseIntValue(name, args[i+1])
		}
		if strings.HasPrefix(arg, name+"=") {
			return parseIntValue(name, strings.TrimPrefix(arg, name+"="))
		}
	}
	return def
}

func parseIntValue(name, value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid value for %s: %s\n", name, value)
		os.Exit(1)
	}
	return n
}

func hasFlag(args []string, name string) bool {
	for _, arg := range args {
		if arg == name {
			return true
		}
	}
	return false
}
