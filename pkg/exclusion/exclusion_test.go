package exclusion_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/subspace/subspace-regenesis-tool/pkg/core"
	"github.com/subspace/subspace-regenesis-tool/pkg/exclusion"
	"github.com/subspace/subspace-regenesis-tool/pkg/ss58"
)

var _ = Describe("Exclusion set", func() {
	Context("Default table", func() {
		var set *exclusion.Set

		BeforeEach(func() {
			var err error
			set, err = exclusion.Default()
			Expect(err).NotTo(HaveOccurred())
		})

		It("should decode every token grant", func() {
			Expect(set.GrantCount()).To(Equal(len(exclusion.TokenGrants)))
			Expect(set.Len()).To(Equal(3 + len(exclusion.TokenGrants)))
		})

		It("should contain sudo, the dev accounts and every grant", func() {
			sudo, _, err := ss58.Decode(exclusion.SudoAddress)
			Expect(err).NotTo(HaveOccurred())
			reason, ok := set.Reason(sudo)
			Expect(ok).To(BeTrue())
			Expect(reason).To(Equal(exclusion.ReasonSudo))

			for _, h := range []string{exclusion.AliceHex, exclusion.BobHex} {
				id, err := ss58.AccountIDFromHex(h)
				Expect(err).NotTo(HaveOccurred())
				reason, ok := set.Reason(id)
				Expect(ok).To(BeTrue())
				Expect(reason).To(Equal(exclusion.ReasonTestAcct))
			}

			for _, addr := range exclusion.TokenGrants {
				id, _, err := ss58.Decode(addr)
				Expect(err).NotTo(HaveOccurred())
				Expect(set.Contains(id)).To(BeTrue(), addr)
			}
		})

		It("should not contain an unrelated account", func() {
			Expect(set.Contains(ss58.AccountID{0x01})).To(BeFalse())
		})

		It("should list members in table order", func() {
			members := set.Members()
			Expect(members[0].Reason).To(Equal(exclusion.ReasonSudo))
			Expect(members[1].ID.String()).To(Equal("5GrwvaEF5zXb26Fz9rcQpDWS57CtERHpNehXCPcNoHGKutQY"))
			Expect(members[3].ID.String()).To(Equal(exclusion.TokenGrants[0]))
		})
	})

	Context("Broken tables", func() {
		It("should fail on an undecodable grant", func() {
			table := exclusion.DefaultTable()
			table.TokenGrants = append([]string{}, table.TokenGrants...)
			table.TokenGrants[4] = "5GBWVfJ253YWVPHzWDTos1nzYZpa9TemP7FpQT9RnxaFN6Sy"

			_, err := exclusion.New(table)
			Expect(err).To(MatchError(core.ErrGrantListDecodeFailure))
		})

		It("should fail on a duplicated grant instead of silently shrinking", func() {
			table := exclusion.DefaultTable()
			table.TokenGrants = append([]string{}, table.TokenGrants...)
			table.TokenGrants = append(table.TokenGrants, table.TokenGrants[0])

			_, err := exclusion.New(table)
			Expect(core.KindOf(err)).To(Equal(core.KindGrantListDecodeFailure))
		})

		It("should fail on a bad sudo address", func() {
			table := exclusion.DefaultTable()
			table.Sudo = "not-an-address"

			_, err := exclusion.New(table)
			Expect(err).To(MatchError(core.ErrGrantListDecodeFailure))
		})

		It("should reject a grant encoded for another network", func() {
			table := exclusion.DefaultTable()
			table.TokenGrants = append([]string{}, table.TokenGrants...)
			// //Alice under the Polkadot prefix.
			table.TokenGrants[2] = "15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5"

			_, err := exclusion.New(table)
			Expect(err).To(MatchError(core.ErrGrantListDecodeFailure))
			Expect(errors.Is(err, ss58.ErrBadPrefix)).To(BeTrue())
		})

		It("should reject a sudo address encoded for another network", func() {
			table := exclusion.DefaultTable()
			table.Sudo = "15oF4uVJwmo4TdGW7VfQxNLavjCXviqxT9S1MgbjMNHr6Sp5"

			_, err := exclusion.New(table)
			Expect(err).To(MatchError(core.ErrGrantListDecodeFailure))
		})
	})
})
