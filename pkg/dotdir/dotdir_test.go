package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/papermind/pkg/dotdir"
)

var _ = Describe("Resolve", func() {
	var root string

	// chdir moves into dir for the rest of the spec.
	chdir := func(dir string) {
		orig, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(dir)).To(Succeed())
		DeferCleanup(func() { _ = os.Chdir(orig) })
	}

	BeforeEach(func() {
		var err error
		// EvalSymlinks so paths compare equal to filepath.Abs results
		// (e.g. /var -> /private/var on macOS).
		root, err = filepath.EvalSymlinks(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
		GinkgoT().Setenv("HOME", filepath.Join(root, "home"))
	})

	It("creates a missing override directory", func() {
		dir := filepath.Join(root, "custom")

		Expect(dotdir.Resolve(dir)).To(Equal(dir))
		Expect(dir).To(BeADirectory())
	})

	It("prefers the override to a local directory", func() {
		Expect(os.Mkdir(filepath.Join(root, dotdir.Name), 0o755)).To(Succeed())
		chdir(root)

		override := filepath.Join(root, "override")
		Expect(dotdir.Resolve(override)).To(Equal(override))
	})

	It("uses ./.papermind when it exists", func() {
		local := filepath.Join(root, dotdir.Name)
		Expect(os.Mkdir(local, 0o755)).To(Succeed())
		chdir(root)

		Expect(dotdir.Resolve("")).To(Equal(local))
	})

	It("ignores a ./.papermind file", func() {
		Expect(os.WriteFile(filepath.Join(root, dotdir.Name), nil, 0o600)).To(Succeed())
		chdir(root)

		Expect(dotdir.Resolve("")).To(Equal(filepath.Join(root, "home", dotdir.Name)))
	})

	It("creates ~/.papermind otherwise", func() {
		work := filepath.Join(root, "work")
		Expect(os.Mkdir(work, 0o755)).To(Succeed())
		chdir(work)

		home := filepath.Join(root, "home", dotdir.Name)
		Expect(dotdir.Resolve("")).To(Equal(home))
		Expect(home).To(BeADirectory())
	})
})

var _ = Describe("WriteFile", func() {
	It("replaces the file with owner-only permissions", func() {
		path := filepath.Join(GinkgoT().TempDir(), "credentials.toml")
		Expect(os.WriteFile(path, []byte("old"), 0o644)).To(Succeed())

		Expect(dotdir.WriteFile(path, []byte("new"))).To(Succeed())

		Expect(os.ReadFile(path)).To(Equal([]byte("new")))
		info, err := os.Stat(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.Mode().Perm()).To(Equal(os.FileMode(0o600)))
	})

	It("leaves only the target behind", func() {
		dir := GinkgoT().TempDir()
		Expect(dotdir.WriteFile(filepath.Join(dir, "config.toml"), []byte("x"))).To(Succeed())

		entries, err := os.ReadDir(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(HaveLen(1))
	})

	It("fails when the directory does not exist", func() {
		path := filepath.Join(GinkgoT().TempDir(), "missing", "config.toml")
		Expect(dotdir.WriteFile(path, []byte("x"))).NotTo(Succeed())
	})
})
