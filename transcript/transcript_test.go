package transcript_test

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sprocket78/ai-battle-app/core"
	"github.com/sprocket78/ai-battle-app/internal/testutil"
	"github.com/sprocket78/ai-battle-app/transcript"
)

var _ = Describe("Transcript", func() {
	var ts time.Time

	BeforeEach(func() {
		ts = time.Date(2025, 1, 2, 15, 4, 5, 0, time.Local)
	})

	Describe("Append", func() {
		It("keeps exchanges in order", func() {
			t := transcript.New("q")
			for _, ex := range testutil.Battle(2) {
				t.Append(ex)
			}

			exs := t.Exchanges()
			Expect(exs).To(HaveLen(6))
			Expect(exs[0].Side).To(Equal(core.SideA))
			Expect(exs[1].Side).To(Equal(core.SideB))
			Expect(exs[5].Round).To(Equal(2))
			Expect(exs[5].Speaker).To(Equal("ChatGPT"))
		})

		It("returns copies that do not alias the transcript", func() {
			t := transcript.New("q")
			t.Append(testutil.NewExchangeBuilder().Response("a").Build())

			snap := t.Exchanges()
			snap[0].Response = "changed"

			Expect(t.Exchanges()[0].Response).To(Equal("a"))
		})
	})

	Describe("Export", func() {
		It("renders the header and one block per exchange", func() {
			t := transcript.New("What is 2+2?")
			t.Append(testutil.NewExchangeBuilder().Speaker("Grok").Response("4").At(ts).Build())
			t.Append(testutil.NewExchangeBuilder().Side(core.SideB).Speaker("ChatGPT").Response("Four.").At(ts).Build())

			Expect(t.Export()).To(Equal(
				"User Query: What is 2+2?\n" +
					"\n" +
					"[2025-01-02 15:04:05] Initial Grok: 4\n" +
					"\n" +
					"[2025-01-02 15:04:05] Initial ChatGPT: Four.\n"))
		})

		It("labels follow-up rounds, errors and the stop marker", func() {
			t := transcript.New("q")
			t.Append(testutil.NewExchangeBuilder().Round(1).Response("x").At(ts).Build())
			t.Append(testutil.NewExchangeBuilder().Side(core.SideB).Speaker("ChatGPT").Round(1).
				Err(core.NewError(core.KindRateLimited, "ChatGPT", "", nil)).At(ts).Build())
			t.Append(testutil.NewExchangeBuilder().Round(2).Stopped().At(ts).Build())

			out := t.Export()
			Expect(out).To(ContainSubstring("[2025-01-02 15:04:05] Round 1 Grok: x\n"))
			Expect(out).To(ContainSubstring("Round 1 ChatGPT: Error: Rate limit exceeded. Try again later.\n"))
			Expect(out).To(ContainSubstring("Round 2 System: Battle stopped by user.\n"))
		})

		It("indents continuation lines so inner blank lines survive", func() {
			t := transcript.New("q")
			t.Append(testutil.NewExchangeBuilder().Response("line one\n\nline three").At(ts).Build())

			Expect(t.Export()).To(HaveSuffix(
				"Initial Grok: line one\n" +
					"    \n" +
					"    line three\n"))
		})

		It("strips colons from speaker names", func() {
			t := transcript.New("q")
			t.Append(testutil.NewExchangeBuilder().Speaker("gpt:4").Response("ok").At(ts).Build())

			Expect(t.Export()).To(ContainSubstring("Initial gpt-4: ok"))
		})
	})

	Describe("Parse", func() {
		It("round-trips speaker, round, timestamp and content", func() {
			exs := testutil.Battle(3)
			exs[3] = testutil.NewExchangeBuilder().Side(core.SideB).Speaker("ChatGPT").Round(1).
				Response("multi\n\n  line: with colon\n").At(ts).Build()
			exs = append(exs, testutil.NewExchangeBuilder().Round(4).Stopped().At(ts).Build())

			t := transcript.New("What is\n2+2?")
			for _, ex := range exs {
				t.Append(ex)
			}
			doc, err := transcript.Parse(t.Export())
			Expect(err).NotTo(HaveOccurred())

			Expect(doc.Prompt).To(Equal("What is\n2+2?"))
			Expect(doc.Entries).To(HaveLen(len(exs)))
			for i, ex := range exs {
				Expect(doc.Entries[i].Speaker).To(Equal(ex.Speaker))
				Expect(doc.Entries[i].Round).To(Equal(ex.Round))
				Expect(doc.Entries[i].Content).To(Equal(ex.Content()))
				Expect(doc.Entries[i].Timestamp.Equal(ex.Timestamp.Truncate(time.Second))).To(BeTrue())
			}
		})

		It("keeps carriage returns in the content", func() {
			t := transcript.New("q\r")
			t.Append(testutil.NewExchangeBuilder().Response("line one\r\nline two\r").At(ts).Build())

			doc, err := transcript.Parse(t.Export())
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Prompt).To(Equal("q\r"))
			Expect(doc.Entries).To(HaveLen(1))
			Expect(doc.Entries[0].Content).To(Equal("line one\r\nline two\r"))
		})

		It("parses an export without exchanges", func() {
			doc, err := transcript.Parse(transcript.New("hello").Export())
			Expect(err).NotTo(HaveOccurred())
			Expect(doc.Prompt).To(Equal("hello"))
			Expect(doc.Entries).To(BeEmpty())
		})

		It("rejects text without the query header", func() {
			_, err := transcript.Parse("[2025-01-02 15:04:05] Initial Grok: 4\n")
			Expect(err).To(MatchError(ContainSubstring("missing")))
		})

		It("rejects unrecognized lines", func() {
			_, err := transcript.Parse("User Query: q\n\nnot a block\n")
			Expect(err).To(MatchError(ContainSubstring("line 3")))
		})

		It("rejects empty input", func() {
			_, err := transcript.Parse("")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("files", func() {
		var dir string

		BeforeEach(func() {
			dir = GinkgoT().TempDir()
		})

		It("names auto-exports by timestamp", func() {
			Expect(transcript.FileName(ts)).To(Equal("battle_log_20250102_150405.txt"))
		})

		It("writes the export under the directory", func() {
			t := transcript.New("q")
			t.Append(testutil.NewExchangeBuilder().Response("a").At(ts).Build())

			path, err := t.AutoExport(filepath.Join(dir, "logs"), ts)
			Expect(err).NotTo(HaveOccurred())
			Expect(path).To(Equal(filepath.Join(dir, "logs", "battle_log_20250102_150405.txt")))

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal(t.Export()))
		})

		It("writes to an explicit path", func() {
			path := filepath.Join(dir, "out.txt")
			Expect(transcript.New("q").WriteFile(path)).To(Succeed())

			data, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(strings.HasPrefix(string(data), "User Query: q")).To(BeTrue())
		})
	})
})
