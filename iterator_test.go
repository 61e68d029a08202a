package rtable_test

import (
	"bytes"
	"encoding/binary"

	"github.com/bsm/rtable"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Iterator", func() {
	for _, mode := range []rtable.AccessMode{rtable.DirectAccess, rtable.MappedAccess} {
		mode := mode

		Describe(mode.String(), func() {
			var reader *rtable.Reader
			var subject *rtable.Iterator

			BeforeEach(func() {
				var err error
				reader, err = seedReader(100, mode)
				Expect(err).NotTo(HaveOccurred())
				subject = reader.NewIterator(nil)
			})

			AfterEach(func() {
				subject.Release()
				_ = reader.Close()
			})

			It("should start past the end", func() {
				Expect(subject.Valid()).To(BeFalse())
				Expect(subject.Next()).To(BeFalse())
				Expect(subject.Err()).NotTo(HaveOccurred())
			})

			It("should iterate from beginning", func() {
				Expect(subject.SeekToFirst()).To(BeTrue())
				Expect(subject.Valid()).To(BeTrue())
				Expect(userKey(subject.Key())).To(Equal("key0000"))
				Expect(subject.Value()).To(Equal([]byte("val0000")))

				Expect(subject.Next()).To(BeTrue())
				Expect(userKey(subject.Key())).To(Equal("key0002"))
				Expect(subject.Value()).To(Equal([]byte("val0002")))

				for i := 0; i < 97; i++ {
					Expect(subject.Next()).To(BeTrue())
				}

				Expect(subject.Next()).To(BeTrue())
				Expect(userKey(subject.Key())).To(Equal("key0198"))
				Expect(subject.Value()).To(Equal([]byte("val0198")))

				Expect(subject.Next()).To(BeFalse())
				Expect(subject.Valid()).To(BeFalse())
				Expect(subject.Key()).To(BeNil())
				Expect(subject.Err()).NotTo(HaveOccurred())

				Expect(subject.Next()).To(BeFalse())
				Expect(subject.Valid()).To(BeFalse())
			})

			It("should visit every record once, in order", func() {
				var keys []string
				for ok := subject.SeekToFirst(); ok; ok = subject.Next() {
					keys = append(keys, userKey(subject.Key()))
				}
				Expect(subject.Err()).NotTo(HaveOccurred())
				Expect(keys).To(HaveLen(100))
				Expect(keys).To(WithTransform(func(ks []string) bool {
					for i := 1; i < len(ks); i++ {
						if ks[i-1] >= ks[i] {
							return false
						}
					}
					return true
				}, BeTrue()))
			})

			It("should restart", func() {
				Expect(subject.SeekToFirst()).To(BeTrue())
				Expect(subject.Next()).To(BeTrue())
				Expect(subject.SeekToFirst()).To(BeTrue())
				Expect(userKey(subject.Key())).To(Equal("key0000"))
			})

			It("should seek", func() {
				Expect(subject.SeekToFirst()).To(BeTrue())
				Expect(subject.Seek(rtable.SearchKey([]byte("key0000")))).To(BeTrue())
				Expect(userKey(subject.Key())).To(Equal("key0000"))

				Expect(subject.Seek(rtable.SearchKey([]byte("key0011")))).To(BeTrue())
				Expect(userKey(subject.Key())).To(Equal("key0012"))
				Expect(subject.Value()).To(Equal([]byte("val0012")))

				Expect(subject.Seek(rtable.SearchKey([]byte("key0100")))).To(BeTrue())
				Expect(userKey(subject.Key())).To(Equal("key0100"))

				Expect(subject.Next()).To(BeTrue())
				Expect(userKey(subject.Key())).To(Equal("key0102"))
			})

			It("should only seek forwards", func() {
				Expect(subject.SeekToFirst()).To(BeTrue())
				Expect(subject.Seek(rtable.SearchKey([]byte("key0050")))).To(BeTrue())
				Expect(subject.Seek(rtable.SearchKey([]byte("key0010")))).To(BeTrue())
				Expect(userKey(subject.Key())).To(Equal("key0050"))
			})

			It("should seek past the end", func() {
				Expect(subject.SeekToFirst()).To(BeTrue())
				Expect(subject.Seek(rtable.SearchKey([]byte("zzz")))).To(BeFalse())
				Expect(subject.Valid()).To(BeFalse())
				Expect(subject.Err()).NotTo(HaveOccurred())

				Expect(subject.Seek(rtable.SearchKey([]byte("key0000")))).To(BeFalse())
				Expect(subject.Valid()).To(BeFalse())
			})

			It("should not seek when unpositioned", func() {
				Expect(subject.Seek(rtable.SearchKey([]byte("key0000")))).To(BeFalse())
				Expect(subject.Valid()).To(BeFalse())
			})

			It("should not support reverse operations", func() {
				Expect(subject.SeekToLast()).To(MatchError(rtable.ErrNotSupported))
				Expect(subject.SeekForPrev(ikey("key0010", 6))).To(MatchError(rtable.ErrNotSupported))
				Expect(subject.Prev()).To(MatchError(rtable.ErrNotSupported))

				Expect(subject.SeekToFirst()).To(BeTrue())
				Expect(subject.SeekToLast()).To(MatchError(rtable.ErrNotSupported))
				Expect(subject.SeekForPrev(ikey("key0010", 6))).To(MatchError(rtable.ErrNotSupported))
				Expect(subject.Prev()).To(MatchError(rtable.ErrNotSupported))
				Expect(subject.Valid()).To(BeTrue())
				Expect(userKey(subject.Key())).To(Equal("key0000"))
			})

			It("should report status idempotently", func() {
				Expect(subject.SeekToFirst()).To(BeTrue())
				for i := 0; i < 3; i++ {
					Expect(subject.Valid()).To(BeTrue())
					Expect(subject.Err()).NotTo(HaveOccurred())
				}
			})

			It("should release", func() {
				Expect(subject.SeekToFirst()).To(BeTrue())
				subject.Release()
				Expect(subject.Valid()).To(BeFalse())
				Expect(subject.Err()).To(MatchError("rtable: iterator was released"))
				Expect(subject.SeekToFirst()).To(BeFalse())
			})
		})
	}

	It("should iterate two records", func() {
		reader, err := openBytes(seedPairs("a", "1", "b", "2"), rtable.DirectAccess)
		Expect(err).NotTo(HaveOccurred())

		iter := reader.NewIterator(nil)
		Expect(iter.SeekToFirst()).To(BeTrue())
		Expect(userKey(iter.Key())).To(Equal("a"))
		Expect(iter.Next()).To(BeTrue())
		Expect(userKey(iter.Key())).To(Equal("b"))
		Expect(iter.Next()).To(BeFalse())
		Expect(iter.Valid()).To(BeFalse())
	})

	It("should handle empty tables", func() {
		reader, err := openBytes(seedPairs(), rtable.MappedAccess)
		Expect(err).NotTo(HaveOccurred())

		iter := reader.NewIterator(nil)
		Expect(iter.SeekToFirst()).To(BeFalse())
		Expect(iter.Valid()).To(BeFalse())
		Expect(iter.Err()).NotTo(HaveOccurred())
	})

	It("should fail on corrupt records", func() {
		data := seedPairs("a", "1", "b", "2", "c", "3")
		binary.LittleEndian.PutUint32(data[18:], 1000)

		reader, err := openBytes(data, rtable.MappedAccess)
		Expect(err).NotTo(HaveOccurred())

		iter := reader.NewIterator(nil)
		Expect(iter.SeekToFirst()).To(BeTrue())
		Expect(iter.Next()).To(BeFalse())
		Expect(iter.Valid()).To(BeFalse())
		Expect(iter.Err()).To(MatchError(rtable.ErrCorruptFormat))

		// failed iterators stay failed
		Expect(iter.SeekToFirst()).To(BeFalse())
		Expect(iter.Next()).To(BeFalse())
		Expect(iter.Seek(ikey("a", 1))).To(BeFalse())
		Expect(iter.Err()).To(MatchError(rtable.ErrCorruptFormat))

		// other iterators are unaffected
		other := reader.NewIterator(nil)
		Expect(other.SeekToFirst()).To(BeTrue())
		Expect(userKey(other.Key())).To(Equal("a"))
	})

	It("should fail on read errors", func() {
		data := seedPairs("a", "1", "b", "2")
		file := &faultyFile{ReaderAt: bytes.NewReader(data), from: 18, to: 36}

		reader, err := rtable.Open(file, int64(len(data)), nil, nil)
		Expect(err).NotTo(HaveOccurred())

		iter := reader.NewIterator(nil)
		Expect(iter.SeekToFirst()).To(BeTrue())
		Expect(iter.Next()).To(BeFalse())
		Expect(iter.Err()).To(MatchError(rtable.ErrIO))
		Expect(iter.Err()).To(MatchError(errFaulty))
	})

	It("should seek with custom comparers", func() {
		buf := new(bytes.Buffer)
		twr := rtable.NewWriter(buf, &rtable.WriterOptions{Comparer: rtable.BytewiseComparer})
		for _, k := range []string{"key-00001", "key-00002", "key-00003"} {
			Expect(twr.Append([]byte(k), []byte(k[4:]))).To(Succeed())
		}
		Expect(twr.Close()).To(Succeed())

		reader, err := rtable.Open(bytes.NewReader(buf.Bytes()), int64(buf.Len()), rtable.BytewiseComparer, nil)
		Expect(err).NotTo(HaveOccurred())

		iter := reader.NewIterator(nil)
		Expect(iter.SeekToFirst()).To(BeTrue())
		Expect(iter.Seek([]byte("key-00002"))).To(BeTrue())
		Expect(iter.Key()).To(Equal([]byte("key-00002")))
		Expect(iter.Value()).To(Equal([]byte("00002")))
	})

	Describe("Arena", func() {
		var reader *rtable.Reader
		var arena *rtable.Arena

		BeforeEach(func() {
			var err error
			reader, err = seedReader(10, rtable.DirectAccess)
			Expect(err).NotTo(HaveOccurred())
			arena = rtable.NewArena(2)
		})

		It("should allocate iterators", func() {
			iters := []*rtable.Iterator{
				reader.NewIterator(arena),
				reader.NewIterator(arena),
				reader.NewIterator(arena),
			}
			Expect(arena.Len()).To(Equal(3))

			for n, iter := range iters {
				Expect(iter.SeekToFirst()).To(BeTrue())
				for i := 0; i < n; i++ {
					Expect(iter.Next()).To(BeTrue())
				}
			}
			Expect(userKey(iters[0].Key())).To(Equal("key0000"))
			Expect(userKey(iters[1].Key())).To(Equal("key0002"))
			Expect(userKey(iters[2].Key())).To(Equal("key0004"))
		})

		It("should behave like heap iterators", func() {
			heap := reader.NewIterator(nil)
			iter := reader.NewIterator(arena)

			hok, aok := heap.SeekToFirst(), iter.SeekToFirst()
			for hok || aok {
				Expect(aok).To(Equal(hok))
				Expect(iter.Key()).To(Equal(heap.Key()))
				Expect(iter.Value()).To(Equal(heap.Value()))
				hok, aok = heap.Next(), iter.Next()
			}
		})

		It("should reset", func() {
			reader.NewIterator(arena)
			reader.NewIterator(arena)
			reader.NewIterator(arena)
			arena.Reset()
			Expect(arena.Len()).To(Equal(0))

			iter := reader.NewIterator(arena)
			Expect(arena.Len()).To(Equal(1))
			Expect(iter.Valid()).To(BeFalse())
			Expect(iter.SeekToFirst()).To(BeTrue())
			Expect(userKey(iter.Key())).To(Equal("key0000"))
		})
	})
})
