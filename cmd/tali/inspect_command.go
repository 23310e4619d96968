package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"tali/internal/caption"
	"tali/internal/language"
	"tali/internal/record"
	"tali/internal/store"
)

const inspectTextWidth = 72

type inspectView struct {
	Position   int                          `json:"position"`
	WitIdx     int64                        `json:"wit_idx"`
	ImageBytes int                          `json:"image_bytes"`
	ImageURL   string                       `json:"image_url,omitempty"`
	Candidates []string                     `json:"youtube_content_video"`
	Subtitles  string                       `json:"youtube_subtitle_text"`
	Title      string                       `json:"youtube_title_text"`
	Languages  []string                     `json:"languages"`
	Captions   map[string]map[string]string `json:"captions"`
}

func newInspectCommand(ctx *commandContext) *cobra.Command {
	var setName string
	var byWitIdx bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect <index>",
		Short: "Show one stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			idx, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid index %q: %w", args[0], err)
			}

			st, err := store.Open(cfg, setName)
			if err != nil {
				return err
			}
			defer st.Close()

			position := int(idx)
			if byWitIdx {
				position, err = st.FindByWitIdx(cmd.Context(), idx)
				if err != nil {
					return err
				}
				if position < 0 {
					return fmt.Errorf("no record with wit_idx %d", idx)
				}
			}
			raw, err := st.Get(cmd.Context(), position)
			if err != nil {
				return err
			}

			view := newInspectView(position, raw)
			if asJSON {
				return writeJSON(cmd, view)
			}
			renderInspect(cmd, view, raw)
			return nil
		},
	}

	cmd.Flags().StringVar(&setName, "set", "", "Split to read (defaults to dataset.set_name)")
	cmd.Flags().BoolVar(&byWitIdx, "wit", false, "Treat the argument as a wit_idx instead of a position")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Write JSON instead of tables")
	return cmd
}

func newInspectView(position int, raw record.Raw) inspectView {
	return inspectView{
		Position:   position,
		WitIdx:     raw.WitIdx,
		ImageBytes: len(raw.Image),
		ImageURL:   raw.ImageURL,
		Candidates: raw.YouTubeContentVideo,
		Subtitles:  raw.YouTubeSubtitleText,
		Title:      raw.YouTubeTitleText,
		Languages:  language.NormalizeList(raw.WitFeatures.Language),
		Captions:   caption.AllLanguages(raw.WitFeatures),
	}
}

func renderInspect(cmd *cobra.Command, view inspectView, raw record.Raw) {
	out := cmd.OutOrStdout()
	summary := [][]string{
		{"position", strconv.Itoa(view.Position)},
		{"wit_idx", strconv.FormatInt(view.WitIdx, 10)},
		{"image", humanize.Bytes(uint64(view.ImageBytes))},
		{"video candidates", strconv.Itoa(len(view.Candidates))},
		{"languages", strings.Join(view.Languages, ", ")},
		{"subtitles", view.Subtitles},
		{"title", text.Trim(view.Title, inspectTextWidth)},
		{"description", text.Trim(oneLine(raw.YouTubeDescriptionText), inspectTextWidth)},
	}
	if view.ImageURL != "" {
		summary = append(summary, []string{"image url", view.ImageURL})
	}
	fmt.Fprintln(out, renderTable("Record", []string{"Field", "Value"}, summary, nil))

	if len(view.Candidates) > 0 {
		rows := make([][]string, len(view.Candidates))
		for i, ref := range view.Candidates {
			rows[i] = []string{strconv.Itoa(i), ref}
		}
		fmt.Fprintln(out, renderTable("Video candidates", []string{"#", "Path"}, rows, []columnAlignment{alignRight, alignLeft}))
	}

	langs := make([]string, 0, len(view.Captions))
	for lang := range view.Captions {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	var rows [][]string
	for _, lang := range langs {
		label := fmt.Sprintf("%s (%s)", language.DisplayName(lang), language.ToISO3(lang))
		fields := make([]string, 0, len(view.Captions[lang]))
		for field := range view.Captions[lang] {
			fields = append(fields, field)
		}
		slices.Sort(fields)
		for _, field := range fields {
			rows = append(rows, []string{label, field, text.Trim(oneLine(view.Captions[lang][field]), inspectTextWidth)})
		}
	}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable("Captions", []string{"Language", "Field", "Text"}, rows, nil))
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
