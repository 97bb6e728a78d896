package classifier

import (
	"os"
	"path/filepath"
	"testing"
)

func writeModelDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func validModelFiles() map[string]string {
	return map[string]string{
		"index_to_name.json": `{"0":"Negative","1":"Positive"}`,
		"config.json":        `{"max_length":8,"tokenizer_path":"vocab.txt","model_path":"model.onnx"}`,
		"vocab.txt":          "[PAD]\n[UNK]\n[CLS]\n[SEP]\nhello\nworld\n",
	}
}

func TestLoadArtifacts(t *testing.T) {
	dir := writeModelDir(t, validModelFiles())

	tok, mapping, mc, err := loadArtifacts(dir)
	if err != nil {
		t.Fatalf("load artifacts: %v", err)
	}
	if mc.MaxLength != 8 {
		t.Fatalf("expected max_length 8, got %d", mc.MaxLength)
	}
	if mc.artifactPath() != "model.onnx" {
		t.Fatalf("expected model path model.onnx, got %q", mc.artifactPath())
	}
	if mapping["1"] != "Positive" {
		t.Fatalf("expected class 1 = Positive, got %q", mapping["1"])
	}
	ids, err := tok.Encode("hello")
	if err != nil || len(ids) != 3 {
		t.Fatalf("tokenizer not usable: ids=%v err=%v", ids, err)
	}
}

func TestLoadArtifactsLegacySOPath(t *testing.T) {
	files := validModelFiles()
	files["config.json"] = `{"max_length":8,"tokenizer_path":"vocab.txt","model_so_path":"model.so"}`
	dir := writeModelDir(t, files)

	_, _, mc, err := loadArtifacts(dir)
	if err != nil {
		t.Fatalf("load artifacts: %v", err)
	}
	if mc.artifactPath() != "model.so" {
		t.Fatalf("expected legacy model_so_path to be used, got %q", mc.artifactPath())
	}
}

func TestLoadArtifactsMissingFiles(t *testing.T) {
	for _, missing := range []string{"index_to_name.json", "config.json", "vocab.txt"} {
		files := validModelFiles()
		delete(files, missing)
		dir := writeModelDir(t, files)
		if _, _, _, err := loadArtifacts(dir); err == nil {
			t.Fatalf("expected error with %s missing", missing)
		}
	}
}

func TestLoadModelConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"zero max_length":    `{"max_length":0,"tokenizer_path":"t","model_path":"m"}`,
		"missing tokenizer":  `{"max_length":8,"model_path":"m"}`,
		"missing model path": `{"max_length":8,"tokenizer_path":"t"}`,
		"malformed json":     `{`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatalf("write config: %v", err)
			}
			if _, err := loadModelConfig(path); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestLoadClassMappingArrayForm(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index_to_name.json")
	if err := os.WriteFile(path, []byte(`["Negative","Positive","Neutral"]`), 0o644); err != nil {
		t.Fatalf("write mapping: %v", err)
	}
	m, err := loadClassMapping(path)
	if err != nil {
		t.Fatalf("load mapping: %v", err)
	}
	if len(m) != 3 || m["2"] != "Neutral" {
		t.Fatalf("unexpected mapping: %v", m)
	}
}

func TestLoadClassMappingRejectsNonNumericKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index_to_name.json")
	if err := os.WriteFile(path, []byte(`{"first":"Negative"}`), 0o644); err != nil {
		t.Fatalf("write mapping: %v", err)
	}
	if _, err := loadClassMapping(path); err == nil {
		t.Fatalf("expected error for non-numeric class index")
	}
}

func TestLoadTokenizerBlob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokenizer.json")
	blob := `{"model":{"type":"WordPiece","vocab":{"[PAD]":0,"[UNK]":1,"[CLS]":2,"[SEP]":3,"ok":4}}}`
	if err := os.WriteFile(path, []byte(blob), 0o644); err != nil {
		t.Fatalf("write blob: %v", err)
	}
	tok, err := loadTokenizer(path)
	if err != nil {
		t.Fatalf("load tokenizer: %v", err)
	}
	if tok.PadID() != 0 {
		t.Fatalf("expected pad id 0, got %d", tok.PadID())
	}
}
