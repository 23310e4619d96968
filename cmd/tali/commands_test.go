package main

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"tali/internal/testsupport"
)

func TestImportThenInspect(t *testing.T) {
	env := setupCLITestEnv(t)
	jsonl := filepath.Join(env.baseDir, "train.jsonl")
	writeRecords(t, jsonl,
		testsupport.SampleRecord(t, env.cfg, 11),
		testsupport.SampleRecord(t, env.cfg, 12),
	)

	out, _, err := runCLI(t, []string{"import", jsonl}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	requireContains(t, out, "Imported 2 records")

	out, _, err = runCLI(t, []string{"inspect", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	requireContains(t, out, "12")
	requireContains(t, out, "German (deu)")
	requireContains(t, out, "a cat on a mat")

	out, _, err = runCLI(t, []string{"inspect", "--wit", "--json", "11"}, env.configPath)
	if err != nil {
		t.Fatalf("inspect --wit: %v", err)
	}
	var view inspectView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("decode inspect json: %v\n%s", err, out)
	}
	if view.Position != 0 || view.WitIdx != 11 || len(view.Candidates) != 3 {
		t.Fatalf("unexpected view %+v", view)
	}
	if len(view.Languages) != 2 || view.Languages[0] != "de" || view.Languages[1] != "en" {
		t.Fatalf("languages = %v", view.Languages)
	}
	if view.Captions["en"]["caption_alt_text_description"] != "a cat" {
		t.Fatalf("captions = %v", view.Captions)
	}

	if _, _, err := runCLI(t, []string{"inspect", "--wit", "99"}, env.configPath); err == nil {
		t.Fatal("expected unknown wit_idx to fail")
	}
}

func TestImportReplace(t *testing.T) {
	env := setupCLITestEnv(t)
	jsonl := filepath.Join(env.baseDir, "train.jsonl")
	writeRecords(t, jsonl, testsupport.SampleRecord(t, env.cfg, 1))

	for range 2 {
		if _, _, err := runCLI(t, []string{"import", jsonl}, env.configPath); err != nil {
			t.Fatalf("import: %v", err)
		}
	}
	out, _, err := runCLI(t, []string{"import", "--replace", jsonl}, env.configPath)
	if err != nil {
		t.Fatalf("import --replace: %v", err)
	}
	requireContains(t, out, "(1 total)")
}

func TestDepsReportsMissingStore(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithFFmpegScript(
		"echo 'ffmpeg version 6.1.1 Copyright'\n",
		"echo 'ffprobe version 6.1.1 Copyright'\n",
	))

	out, _, err := runCLI(t, []string{"deps"}, env.configPath)
	if !errors.Is(err, errChecksFailed) {
		t.Fatalf("expected errChecksFailed without a store, got %v", err)
	}
	requireContains(t, out, "6.1.1")

	jsonl := filepath.Join(env.baseDir, "train.jsonl")
	writeRecords(t, jsonl, testsupport.SampleRecord(t, env.cfg, 1))
	if _, _, err := runCLI(t, []string{"import", jsonl}, env.configPath); err != nil {
		t.Fatalf("import: %v", err)
	}
	out, _, err = runCLI(t, []string{"deps"}, env.configPath)
	if err != nil {
		t.Fatalf("deps after import: %v\n%s", err, out)
	}
	requireContains(t, out, "1 records")
}

func TestSampleReportsBatchLayout(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithModalities("wit_image", "wit_caption"),
		testsupport.WithSmallShapes(16, 2, 160),
	)
	jsonl := filepath.Join(env.baseDir, "train.jsonl")
	writeRecords(t, jsonl,
		testsupport.SampleRecord(t, env.cfg, 1),
		testsupport.SampleRecord(t, env.cfg, 2),
		testsupport.SampleRecord(t, env.cfg, 3),
	)
	if _, _, err := runCLI(t, []string{"import", jsonl}, env.configPath); err != nil {
		t.Fatalf("import: %v", err)
	}

	tests := []struct {
		name string
		args []string
	}{
		{"loader", []string{"sample", "--json", "--count", "2", "--batch-size", "2"}},
		{"gomlx", []string{"sample", "--json", "--count", "1", "--batch-size", "2", "--gomlx"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runCLI(t, tt.args, env.configPath)
			if err != nil {
				t.Fatalf("sample: %v", err)
			}
			var report sampleReport
			if err := json.Unmarshal([]byte(out), &report); err != nil {
				t.Fatalf("decode sample json: %v\n%s", err, out)
			}
			if report.Samples != 2*report.Batches || report.Batches == 0 {
				t.Fatalf("unexpected counts %+v", report)
			}
			if report.WitIdx[0] != 1 || report.WitIdx[1] != 2 {
				t.Fatalf("wit_idx = %v, want [1 2 ...]", report.WitIdx)
			}
			var image *keyInfo
			for i := range report.Keys {
				if report.Keys[i].Key == "wit_image" {
					image = &report.Keys[i]
				}
			}
			if image == nil {
				t.Fatalf("wit_image missing from %+v", report.Keys)
			}
			if image.DType != "uint8" || formatShape(image.Shape) != "[2, 3, 16, 16]" {
				t.Fatalf("wit_image = %+v", *image)
			}
		})
	}
}

func TestSampleHierarchicalGroupsFirstSample(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithModalities("wit_image", "wit_caption"),
		testsupport.WithSmallShapes(16, 2, 160),
	)
	jsonl := filepath.Join(env.baseDir, "train.jsonl")
	writeRecords(t, jsonl,
		testsupport.SampleRecord(t, env.cfg, 5),
		testsupport.SampleRecord(t, env.cfg, 6),
	)
	if _, _, err := runCLI(t, []string{"import", jsonl}, env.configPath); err != nil {
		t.Fatalf("import: %v", err)
	}

	out, _, err := runCLI(t, []string{"sample", "--json", "--hierarchical", "--batch-size", "1", "--start", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	var report sampleReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if report.Records != 2 {
		t.Fatalf("records = %d, want 2", report.Records)
	}
	image, ok := report.Hierarchy["wit"]["wit_image"]
	if !ok || image.Kind != "tensor" || formatShape(image.Shape) != "[3, 16, 16]" {
		t.Fatalf("wit group = %+v", report.Hierarchy["wit"])
	}
	if report.Hierarchy["wit"]["wit_caption"].Kind != "text" {
		t.Fatalf("wit_caption = %+v", report.Hierarchy["wit"]["wit_caption"])
	}
	other := report.Hierarchy["other"]
	if len(other) != 2 || other["wit_idx"].Kind != "text" || other["youtube_video_id"].Kind != "text" {
		t.Fatalf("other group = %+v", other)
	}

	out, _, err = runCLI(t, []string{"sample", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	report = sampleReport{}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if report.Hierarchy != nil {
		t.Fatalf("hierarchy reported without --hierarchical: %+v", report.Hierarchy)
	}
}

func TestSampleWrapsAroundInLoaderMode(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithModalities("wit_caption"))
	jsonl := filepath.Join(env.baseDir, "train.jsonl")
	writeRecords(t, jsonl, testsupport.SampleRecord(t, env.cfg, 7))
	if _, _, err := runCLI(t, []string{"import", jsonl}, env.configPath); err != nil {
		t.Fatalf("import: %v", err)
	}
	out, _, err := runCLI(t, []string{"sample", "--json", "--batch-size", "3"}, env.configPath)
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	var report sampleReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(report.WitIdx) != 3 || report.WitIdx[2] != 7 {
		t.Fatalf("wit_idx = %v", report.WitIdx)
	}
	if len(report.Keys) != 1 || report.Keys[0].Kind != "text" {
		t.Fatalf("keys = %+v", report.Keys)
	}
}
