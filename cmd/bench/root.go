package bench

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gostonefire/bucketmap"
	"github.com/gostonefire/bucketmap/cmd/util"
	"github.com/gostonefire/bucketmap/hashfunc"
	"github.com/gostonefire/bucketmap/internal/logging"
	"github.com/gostonefire/bucketmap/memory"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/exp/rand"
)

// Config - Settings of one bench run
type Config struct {
	Keys           int
	KeyLength      int
	ValueLength    int
	Hash           string
	Seed           uint64
	InitialBuckets int
	MemoryLimit    int
	Prometheus     bool
	LogLevel       string
}

var (
	benchConfig = &Config{}
	BenchCmd    = &cobra.Command{
		Use:     "bench",
		Short:   "Run an insert, lookup, update and delete workload against a map",
		Long:    `Run an insert, lookup, update and delete workload against a map and print timings, statistics and allocations. Every flag can also be set as BUCKETMAP_<flag> (e.g. BUCKETMAP_KEY_LENGTH=16)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

// hashFuncs - Hash functions selectable by name
var hashFuncs = map[string]hashfunc.HashFunc{
	"xxhash": hashfunc.XXHash,
	"fnv1a":  hashfunc.FNV1a,
	"crc32":  hashfunc.CRC32,
	"uint64": hashfunc.Uint64,
}

func init() {
	key := "keys"
	BenchCmd.Flags().Int(key, 1000000, util.WrapString("Number of distinct keys to insert"))
	key = "key-length"
	BenchCmd.Flags().Int(key, 16, util.WrapString("Length of every key in bytes"))
	key = "value-length"
	BenchCmd.Flags().Int(key, 8, util.WrapString("Length of every value in bytes"))
	key = "hash"
	BenchCmd.Flags().String(key, "xxhash", util.WrapString("Hash function to use (xxhash, fnv1a, crc32, uint64)"))
	key = "seed"
	BenchCmd.Flags().Uint64(key, 0, util.WrapString("Seed for key generation and hashing, 0 draws a random seed"))
	key = "initial-buckets"
	BenchCmd.Flags().Int(key, 8, util.WrapString("Initial number of buckets, rounded up to a power of two"))
	key = "memory-limit"
	BenchCmd.Flags().Int(key, 0, util.WrapString("Memory budget for the map in MB, 0 for no limit"))
	key = "prometheus"
	BenchCmd.Flags().Bool(key, false, util.WrapString("Print the map metrics in Prometheus text format after the run"))
}

// processConfig reads the command line flags and environment variables into benchConfig
func processConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := viper.BindPFlags(cmd.InheritedFlags()); err != nil {
		return err
	}

	benchConfig.Keys = viper.GetInt("keys")
	benchConfig.KeyLength = viper.GetInt("key-length")
	benchConfig.ValueLength = viper.GetInt("value-length")
	benchConfig.Hash = strings.ToLower(viper.GetString("hash"))
	benchConfig.Seed = viper.GetUint64("seed")
	benchConfig.InitialBuckets = viper.GetInt("initial-buckets")
	benchConfig.MemoryLimit = viper.GetInt("memory-limit")
	benchConfig.Prometheus = viper.GetBool("prometheus")
	benchConfig.LogLevel = viper.GetString("log-level")

	if benchConfig.Keys <= 0 {
		return fmt.Errorf("keys must be positive, got %d", benchConfig.Keys)
	}
	if benchConfig.KeyLength < 8 && benchConfig.Keys > 1<<(8*benchConfig.KeyLength) {
		return fmt.Errorf("%d distinct keys do not fit in %d bytes", benchConfig.Keys, benchConfig.KeyLength)
	}
	if _, ok := hashFuncs[benchConfig.Hash]; !ok {
		return fmt.Errorf("invalid hash %s (expected one of: xxhash, fnv1a, crc32, uint64)", benchConfig.Hash)
	}
	if benchConfig.Seed == 0 {
		benchConfig.Seed = bucketmap.GenerateSeed()
	}

	return logging.InitLoggers(benchConfig.LogLevel)
}

// run executes the workload
func run(_ *cobra.Command, _ []string) error {
	log := logging.GetLogger(logging.CLILogger)

	tracker := memory.NewTracker(nil)
	var allocator memory.Allocator = tracker
	if benchConfig.MemoryLimit > 0 {
		allocator = memory.NewLimited(tracker, benchConfig.MemoryLimit<<20)
	}

	opts := bucketmap.DefaultOptions()
	opts.Name = "bench"
	opts.Seed = benchConfig.Seed
	opts.InitialBuckets = benchConfig.InitialBuckets
	opts.Allocator = allocator
	opts.Metrics = true

	bm, err := bucketmap.NewBucketMap(benchConfig.KeyLength, benchConfig.ValueLength, hashFuncs[benchConfig.Hash], hashfunc.Equal, opts)
	if err != nil {
		return err
	}

	fmt.Printf("Benchmark of %d keys, key length %d, value length %d, hash %s, seed %d\n",
		benchConfig.Keys, benchConfig.KeyLength, benchConfig.ValueLength, benchConfig.Hash, benchConfig.Seed)
	fmt.Println()

	keys := generateKeys(benchConfig.Keys, benchConfig.KeyLength, benchConfig.Seed)
	value := make([]byte, benchConfig.ValueLength)
	out := make([]byte, benchConfig.ValueLength)

	// Insert
	start := time.Now()
	for i, key := range keys {
		fillValue(value, uint64(i))
		if err = bm.Put(key, value); err != nil {
			log.Errorf("put of key %d failed after %d records: %v", i, bm.Len(), err)
			return err
		}
	}
	report("insert", len(keys), time.Since(start))

	// Lookup
	start = time.Now()
	misses := 0
	for _, key := range keys {
		found, err := bm.Get(key, out)
		if err != nil {
			return err
		}
		if !found {
			misses++
		}
	}
	report("lookup", len(keys), time.Since(start))
	if misses > 0 {
		log.Errorf("%d keys not found after insert", misses)
	}

	// Update
	start = time.Now()
	for i, key := range keys {
		fillValue(value, uint64(i)+1)
		if err = bm.Put(key, value); err != nil {
			return err
		}
	}
	report("update", len(keys), time.Since(start))

	stat, err := bm.Stat(false)
	if err != nil {
		return err
	}
	printStat(stat)

	// Delete every other key
	start = time.Now()
	deleted := 0
	for i := 0; i < len(keys); i += 2 {
		if err = bm.Delete(keys[i]); err != nil {
			return err
		}
		deleted++
	}
	report("delete", deleted, time.Since(start))
	fmt.Printf("%d records left\n", bm.Len())
	fmt.Println()

	h := bm.MovesPerWrite().Snapshot()
	fmt.Println("Entries moved per write during growth:")
	fmt.Printf("  writes %d, total %d, mean %.2f, max %d, p99 %.0f\n", h.Count(), h.Sum(), h.Mean(), h.Max(), h.Percentile(0.99))
	fmt.Println()

	if benchConfig.Prometheus {
		bm.WritePrometheus(os.Stdout)
		fmt.Println()
	}

	fmt.Printf("Memory before destroy: %s\n", tracker.Stat())
	bm.Destroy()
	fmt.Printf("Memory after destroy:  %s\n", tracker.Stat())

	return nil
}

// generateKeys - Returns n distinct random keys of the given length
func generateKeys(n, keyLength int, seed uint64) [][]byte {
	rng := rand.New(rand.NewSource(seed))
	seen := make(map[string]struct{}, n)
	keys := make([][]byte, 0, n)
	for len(keys) < n {
		key := make([]byte, keyLength)
		_, _ = rng.Read(key)
		if _, ok := seen[string(key)]; ok {
			continue
		}
		seen[string(key)] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

// fillValue - Writes v into value, repeating or truncating its 8 bytes to fit
func fillValue(value []byte, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	for i := range value {
		value[i] = buf[i%8]
	}
}

func report(name string, n int, elapsed time.Duration) {
	fmt.Printf("%-8s %10d ops in %12v, %8.1f ns/op\n", name, n, elapsed, float64(elapsed.Nanoseconds())/float64(n))
}

func printStat(stat *bucketmap.HashMapStat) {
	fmt.Println()
	fmt.Println("Map statistics:")
	fmt.Printf("  records %d (primary %d, overflow %d, old %d)\n", stat.Records, stat.PrimaryRecords, stat.OverflowRecords, stat.OldRecords)
	fmt.Printf("  buckets %d, overflow buckets %d, longest chain %d\n", stat.Buckets, stat.OverflowBuckets, stat.MaxChainLength)
	fmt.Printf("  growing %t (old buckets %d, evacuated %d)\n", stat.Growing, stat.OldBuckets, stat.EvacuatedBuckets)
	fmt.Println()
}
