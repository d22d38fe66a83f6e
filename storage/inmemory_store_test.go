package storage_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/picoredis/storage"
)

var _ = Describe("storage / InmemoryStore", func() {
	var (
		ctx   context.Context
		store *storage.InmemoryStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = storage.NewInmemoryStore()
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	It("an empty inmemory store equals {}", func() {
		value, err := store.Backup()
		Expect(err).To(Succeed())
		Expect(string(value)).To(Equal(`{}`))
	})

	Describe("Set() / Get()", func() {
		It("can read a key that is written", func() {
			Expect(store.Set(ctx, "foo", []byte("bar"))).To(Succeed())

			value, ok, err := store.Get(ctx, "foo")
			Expect(err).To(Succeed())
			Expect(ok).To(BeTrue())
			Expect(value).To(Equal([]byte("bar")))

			snapshot, err := store.Backup()
			Expect(err).To(Succeed())
			Expect(string(snapshot)).To(Equal(`{"foo":"bar"}`))
		})

		It("reports missing keys", func() {
			value, ok, err := store.Get(ctx, "nope")
			Expect(err).To(Succeed())
			Expect(ok).To(BeFalse())
			Expect(value).To(BeNil())
		})

		It("keeps empty values apart from missing ones", func() {
			Expect(store.Set(ctx, "empty", []byte{})).To(Succeed())

			value, ok, err := store.Get(ctx, "empty")
			Expect(err).To(Succeed())
			Expect(ok).To(BeTrue())
			Expect(value).To(BeEmpty())
		})

		It("treats path syntax in keys literally", func() {
			for _, key := range []string{"a.b", "user:*", "q?", "x|y", "#", "@this", `back\slash`} {
				Expect(store.Set(ctx, key, []byte(key+"-value"))).To(Succeed(), "key %q", key)

				value, ok, err := store.Get(ctx, key)
				Expect(err).To(Succeed())
				Expect(ok).To(BeTrue(), "key %q", key)
				Expect(string(value)).To(Equal(key + "-value"))
			}

			keys, err := store.Keys(ctx)
			Expect(err).To(Succeed())
			Expect(keys).To(ConsistOf("a.b", "user:*", "q?", "x|y", "#", "@this", `back\slash`))
		})

		It("rejects the empty key", func() {
			Expect(store.Set(ctx, "", []byte("x"))).To(MatchError(storage.ErrInvalidKey))
		})
	})

	Describe("Del() / Exists()", func() {
		It("counts only keys that were present", func() {
			Expect(store.Set(ctx, "a", []byte("1"))).To(Succeed())
			Expect(store.Set(ctx, "b", []byte("2"))).To(Succeed())

			Expect(store.Exists(ctx, "a", "b", "c", "a")).To(Equal(3))
			Expect(store.Del(ctx, "a", "c")).To(Equal(1))
			Expect(store.Exists(ctx, "a")).To(Equal(0))
			Expect(store.Exists(ctx, "b")).To(Equal(1))
		})
	})

	Describe("Incr()", func() {
		It("starts missing keys at zero", func() {
			Expect(store.Incr(ctx, "n")).To(Equal(int64(1)))
			Expect(store.Incr(ctx, "n")).To(Equal(int64(2)))

			value, _, err := store.Get(ctx, "n")
			Expect(err).To(Succeed())
			Expect(string(value)).To(Equal("2"))
		})

		It("refuses non-integer values", func() {
			Expect(store.Set(ctx, "s", []byte("abc"))).To(Succeed())

			_, err := store.Incr(ctx, "s")
			Expect(errors.Is(err, storage.ErrNotInteger)).To(BeTrue())
		})
	})

	Describe("Restore()", func() {
		It("replaces the keyspace with a snapshot", func() {
			Expect(store.Restore([]byte(`{"foo":"bar","n":"5"}`))).To(Succeed())

			Expect(store.Incr(ctx, "n")).To(Equal(int64(6)))
			value, ok, err := store.Get(ctx, "foo")
			Expect(err).To(Succeed())
			Expect(ok).To(BeTrue())
			Expect(string(value)).To(Equal("bar"))
		})

		It("rejects snapshots that are not objects", func() {
			Expect(store.Restore([]byte(`[1,2]`))).NotTo(Succeed())
			Expect(store.Restore([]byte(`{nope`))).NotTo(Succeed())
		})
	})
})
