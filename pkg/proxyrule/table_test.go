package proxyrule_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/devproxy/pkg/proxyrule"
)

var _ = Describe("Table", func() {
	newRule := func(prefix, target string) *proxyrule.Rule {
		return &proxyrule.Rule{MatchPrefix: prefix, Target: mustURL(target), Secure: true}
	}

	It("returns the first matching rule in declaration order", func() {
		table, err := proxyrule.NewTable(
			newRule("/api", "http://localhost:3000"),
			newRule("/api/v2", "http://localhost:4000"),
		)
		Expect(err).NotTo(HaveOccurred())

		rule, ok := table.Match("/api/v2/users")
		Expect(ok).To(BeTrue())
		Expect(rule.Target.Host).To(Equal("localhost:3000"))
	})

	It("reports no match for unclaimed paths", func() {
		table, err := proxyrule.NewTable(newRule("/api", "http://localhost:3000"))
		Expect(err).NotTo(HaveOccurred())

		rule, ok := table.Match("/other/x")
		Expect(ok).To(BeFalse())
		Expect(rule).To(BeNil())
	})

	It("rejects duplicate prefixes", func() {
		_, err := proxyrule.NewTable(
			newRule("/api", "http://localhost:3000"),
			newRule("/api", "http://localhost:4000"),
		)

		Expect(err).To(MatchError(proxyrule.ErrDuplicatePrefix))
	})

	It("rejects invalid rules", func() {
		_, err := proxyrule.NewTable(newRule("", "http://localhost:3000"))

		Expect(err).To(MatchError(ContainSubstring("rule 0")))
	})

	It("hands out a copy of its rules", func() {
		table, err := proxyrule.NewTable(newRule("/api", "http://localhost:3000"))
		Expect(err).NotTo(HaveOccurred())

		rules := table.Rules()
		rules[0] = newRule("/hijack", "http://evil")

		Expect(table.Rules()[0].MatchPrefix).To(Equal("/api"))
		Expect(table.Len()).To(Equal(1))
	})

	It("treats a nil table as empty", func() {
		var table *proxyrule.Table

		_, ok := table.Match("/api")
		Expect(ok).To(BeFalse())
		Expect(table.Len()).To(Equal(0))
	})
})
