package storage_test

import (
	"encoding/hex"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/subspace/subspace-regenesis-tool/pkg/core"
	"github.com/subspace/subspace-regenesis-tool/pkg/ss58"
	"github.com/subspace/subspace-regenesis-tool/pkg/storage"
)

var _ = Describe("Storage keys", func() {
	It("should derive the well-known pallet prefixes", func() {
		Expect(hex.EncodeToString(storage.Twox128([]byte("System")))).To(Equal("26aa394eea5630e07c48ae0c9558cef7"))
		Expect(hex.EncodeToString(storage.SystemAccountPrefix)).To(Equal(
			"26aa394eea5630e07c48ae0c9558cef7b99d880ec681799c0cf30e8886371da9"))
		Expect(hex.EncodeToString(storage.TotalIssuanceKey)).To(Equal(
			"c2261276cc9d1f8598ea4b6a74b15c2f57c875e4cff74148e4628f264b974c80"))
	})

	Context("Account keys", func() {
		var id ss58.AccountID

		BeforeEach(func() {
			var err error
			id, err = ss58.AccountIDFromHex("0xd43593c715fdd31c61141abd04a99fd6822c8558854ccde39a5684e7a56da27d")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should lay out prefix, hash and id", func() {
			key := storage.AccountKey(id)
			Expect(key).To(HaveLen(storage.AccountKeyLen))
			Expect(key[:storage.PrefixLen]).To(Equal(storage.SystemAccountPrefix))
			Expect(key[storage.PrefixLen : storage.PrefixLen+storage.Blake2_128Len]).To(Equal(storage.Blake2_128(id[:])))
			Expect(key[storage.AccountKeyLen-ss58.AccountIDLen:]).To(Equal(id[:]))
		})

		It("should recover the id from its key", func() {
			got, err := storage.AccountIDFromKey(storage.AccountKey(id))
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(id))
		})

		It("should reject keys of the wrong length", func() {
			key := storage.AccountKey(id)
			_, err := storage.AccountIDFromKey(key[:len(key)-1])
			Expect(err).To(MatchError(core.ErrMalformedAccountKey))
		})

		It("should reject keys from another namespace", func() {
			key := storage.AccountKey(id)
			key[0] ^= 0x01
			_, err := storage.AccountIDFromKey(key)
			Expect(err).To(MatchError(core.ErrMalformedAccountKey))
		})

		It("should reject a hash component that does not match the id", func() {
			key := storage.AccountKey(id)
			key[storage.PrefixLen] ^= 0x01
			_, err := storage.AccountIDFromKey(key)
			Expect(core.KindOf(err)).To(Equal(core.KindMalformedAccountKey))
		})
	})
})
