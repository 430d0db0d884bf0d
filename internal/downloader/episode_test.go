package downloader

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

const episodePageHTML = `
<!DOCTYPE html>
<html>
<head>
    <meta property="og:audio" content="%s">
    <meta property="og:title" content="Test Episode Title">
    <meta property="og:site_name" content="Test Show">
</head>
<body></body>
</html>
`

func newEpisodeServer(t *testing.T, audioBytes []byte) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/episode", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, episodePageHTML, server.URL+"/audio/test_audio.m4a")
	})
	mux.HandleFunc("/audio/test_audio.m4a", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", fmt.Sprint(len(audioBytes)))
		w.Write(audioBytes)
	})
	return server
}

func TestFetchEpisodeInfo(t *testing.T) {
	server := newEpisodeServer(t, []byte("fake audio bytes"))

	episode, err := FetchEpisodeInfo(server.URL + "/episode")
	if err != nil {
		t.Fatalf("FetchEpisodeInfo() error = %v, want nil", err)
	}

	if want := server.URL + "/audio/test_audio.m4a"; episode.AudioURL != want {
		t.Errorf("FetchEpisodeInfo() AudioURL = %v, want %v", episode.AudioURL, want)
	}
	if episode.Title != "Test Episode Title" {
		t.Errorf("FetchEpisodeInfo() Title = %v, want Test Episode Title", episode.Title)
	}
	if episode.Show != "Test Show" {
		t.Errorf("FetchEpisodeInfo() Show = %v, want Test Show", episode.Show)
	}
}

func TestFetchEpisodeInfo_MissingContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<!DOCTYPE html><html><head></head><body></body></html>"))
	}))
	defer server.Close()

	if _, err := FetchEpisodeInfo(server.URL); err == nil {
		t.Errorf("FetchEpisodeInfo() expected error for missing content, got nil")
	}
}

func TestDownloadEpisode(t *testing.T) {
	audioBytes := []byte("fake audio bytes")
	server := newEpisodeServer(t, audioBytes)
	dir := t.TempDir()

	path, err := DownloadEpisode(server.URL+"/episode", dir)
	if err != nil {
		t.Fatalf("DownloadEpisode() error = %v, want nil", err)
	}

	wantPath := filepath.Join(dir, "Test Show", "Test Episode Title.m4a")
	if path != wantPath {
		t.Errorf("DownloadEpisode() path = %v, want %v", path, wantPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(data) != string(audioBytes) {
		t.Errorf("downloaded file content = %q, want %q", data, audioBytes)
	}

	// A second download sees the same remote size and leaves the file alone.
	if _, err := DownloadEpisode(server.URL+"/episode", dir); err != nil {
		t.Errorf("DownloadEpisode() second run error = %v, want nil", err)
	}
}

func TestDownloadEpisode_InvalidURL(t *testing.T) {
	if _, err := DownloadEpisode("not a url", t.TempDir()); err == nil {
		t.Errorf("DownloadEpisode() expected error for invalid url, got nil")
	}
}

func Test_buildEpisodeFilePath(t *testing.T) {
	type args struct {
		dir           string
		showName      string
		episodeTitle  string
		fileExtension string
	}
	tests := []struct {
		name string
		args args
		want string
	}{
		{
			name: "dir",
			args: args{
				dir:           "",
				showName:      "虎言乱语",
				episodeTitle:  "EP1",
				fileExtension: ".m4a",
			},
			want: "虎言乱语/EP1.m4a",
		},
		{
			name: "illegal chars",
			args: args{
				dir:           "data",
				showName:      "Test|Podcast",
				episodeTitle:  "Episode: 1",
				fileExtension: ".mp3",
			},
			want: filepath.Join("data", "Test-Podcast", "Episode- 1.mp3"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildEpisodeFilePath(tt.args.dir, tt.args.showName, tt.args.episodeTitle, tt.args.fileExtension)
			if got != tt.want {
				t.Errorf("buildEpisodeFilePath() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_validPath(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{
			name: "normal",
			path: "Vol.13 从职场作家到创办企业，她用IP思维追求人生梦想| 对话职场作家七芊.m4a",
			want: "Vol.13 从职场作家到创办企业，她用IP思维追求人生梦想- 对话职场作家七芊.m4a",
		},
		{
			name: "path_with_illegal_chars",
			path: "Episode: Title|With<Bad>Chars",
			want: "Episode- Title-With-Bad-Chars",
		},
		{
			name: "path_with_slash",
			path: "Episode/Part1",
			want: "Episode-Part1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validPath(tt.path); got != tt.want {
				t.Errorf("validPath() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_audioFileExtension(t *testing.T) {
	tests := []struct {
		name         string
		audioFileURL string
		want         string
	}{
		{name: "mp3_extension", audioFileURL: "https://example.com/audio.mp3", want: ".mp3"},
		{name: "m4a_extension", audioFileURL: "https://example.com/audio.m4a", want: ".m4a"},
		{name: "wav_extension", audioFileURL: "https://example.com/audio.wav", want: ".wav"},
		{name: "unsupported_extension", audioFileURL: "https://example.com/audio.txt", want: ""},
		{name: "no_extension", audioFileURL: "https://example.com/audio", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := audioFileExtension(tt.audioFileURL); got != tt.want {
				t.Errorf("audioFileExtension() = %v, want %v", got, tt.want)
			}
		})
	}
}
