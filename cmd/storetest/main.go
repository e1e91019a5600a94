// Command storetest is a smoke check for every KV backend: it saves a small
// tree and a log journal through each one and reads them back.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/hack-pad/hackpadfs/mem"

	"github.com/kittclouds/kinship/internal/logging"
	"github.com/kittclouds/kinship/internal/store"
	"github.com/kittclouds/kinship/pkg/family"
)

type backend struct {
	name string
	open func() (store.KV, error)
}

func main() {
	backends := []backend{
		{"MemStore", func() (store.KV, error) { return store.NewMemStore(), nil }},
		{"SQLiteStore", func() (store.KV, error) { return store.NewSQLiteStore() }},
		{"FSStore", openFS},
		{"WriteBehind", func() (store.KV, error) {
			kv, err := openFS()
			if err != nil {
				return nil, err
			}
			return store.NewWriteBehind(kv, nil), nil
		}},
	}
	if len(os.Args) > 1 {
		dsn := os.Args[1]
		backends = append(backends, backend{"SQLiteStore(" + dsn + ")", func() (store.KV, error) {
			return store.NewSQLiteStoreWithDSN(dsn)
		}})
	}

	for _, b := range backends {
		fmt.Printf("Testing %s...\n", b.name)
		kv, err := b.open()
		if err != nil {
			log.Fatalf("open failed: %v", err)
		}
		check(kv)
		if err := kv.Close(); err != nil {
			log.Fatalf("Close failed: %v", err)
		}
		fmt.Println()
	}

	fmt.Println("✅ All backends passed!")
}

func openFS() (store.KV, error) {
	fsys, err := mem.NewFS()
	if err != nil {
		return nil, err
	}
	return store.NewFSStore(fsys, "kv")
}

func check(kv store.KV) {
	tree := family.NewTree(nil)
	mum := tree.CreatePerson("Mary", "Smith", family.GenderFemale)
	kid := tree.CreatePerson("Anna", "Smith", family.GenderFemale)
	tree.AddParentChild(mum.ID(), kid.ID())
	tree.SaveTo(kv)
	fmt.Println("  ✓ SaveTo works")

	loaded := family.NewTree(nil)
	ok, err := loaded.LoadFrom(kv)
	if err != nil {
		log.Fatalf("LoadFrom failed: %v", err)
	}
	if !ok || loaded.Len() != 2 {
		log.Fatalf("LoadFrom expected 2 persons, got %d", loaded.Len())
	}
	if p, _ := loaded.Person(kid.ID()); p.Mother() != mum.ID() {
		log.Fatalf("LoadFrom lost the mother link")
	}
	fmt.Println("  ✓ LoadFrom works")

	j := logging.NewJournal(kv, 10)
	logger := logging.New(logging.Config{Quiet: true}, j)
	logger.Info("Smoke test", "component", "storetest")
	if err := j.Err(); err != nil {
		log.Fatalf("Journal persist failed: %v", err)
	}

	reloaded := logging.NewJournal(kv, 10)
	if err := reloaded.Load(); err != nil {
		log.Fatalf("Journal load failed: %v", err)
	}
	if reloaded.Len() != 1 {
		log.Fatalf("Journal expected 1 entry, got %d", reloaded.Len())
	}
	fmt.Println("  ✓ Journal works")

	keys, err := kv.Keys("")
	if err != nil {
		log.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 2 {
		log.Fatalf("Keys expected %q and %q, got %v", family.SnapshotKey, logging.JournalKey, keys)
	}
	fmt.Println("  ✓ Keys works")
}
