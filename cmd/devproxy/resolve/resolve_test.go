package resolvecmder

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

const expenseTrackerConfig = `
[devServer.proxy."/api"]
target = "http://localhost/expense-tracker-backend"
changeOrigin = true
pathRewrite = { "^/api" = "" }

[devServer.proxy."/legacy"]
target = "http://127.0.0.1:9000"
`

var _ = Describe("Resolve Command", func() {
	var (
		tmpDir     string
		configPath string
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "devproxy-resolve-test-*")
		Expect(err).NotTo(HaveOccurred())
		configPath = filepath.Join(tmpDir, "devproxy.toml")
		Expect(os.WriteFile(configPath, []byte(expenseTrackerConfig), 0o644)).To(Succeed())
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	run := func(args ...string) (string, error) {
		var out bytes.Buffer
		cmd := NewResolveCmd()
		cmd.SetOut(&out)
		cmd.SetErr(io.Discard)
		cmd.SetArgs(append([]string{"--config", configPath}, args...))
		err := cmd.Execute()
		return out.String(), err
	}

	It("strips the prefix and rewrites the Host header", func() {
		out, err := run("/api/users")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("/api/users -> http://localhost/expense-tracker-backend/users (rule /api, Host: localhost)\n"))
	})

	It("keeps the query string", func() {
		out, err := run("/api/users?page=2")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("http://localhost/expense-tracker-backend/users?page=2"))
	})

	It("keeps the incoming Host when the rule does not change origin", func() {
		out, err := run("--host", "app.local:8080", "/legacy/report")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("/legacy/report -> http://127.0.0.1:9000/legacy/report (rule /legacy, Host: app.local:8080)\n"))
	})

	It("keeps percent-encoded slashes", func() {
		out, err := run("/api/files/a%2Fb")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("-> http://localhost/expense-tracker-backend/files/a%2Fb "))
	})

	It("reports unmatched paths as not proxied", func() {
		out, err := run("/other/x")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal("/other/x is not proxied; served by the dev server\n"))
	})

	It("rejects relative request paths", func() {
		_, err := run("api/users")
		Expect(err).To(MatchError(ContainSubstring("invalid request path")))
	})
})
