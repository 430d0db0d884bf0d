package downloader

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"audio-whisper/internal/app/util/files"
)

// Episode holds the metadata scraped from a podcast episode page.
type Episode struct {
	AudioURL string
	Title    string
	Show     string
}

// supportedExtensions mirrors the formats the transcription providers accept.
var supportedExtensions = []string{".mp3", ".m4a", ".wav", ".ogg", ".flac", ".aac"}

var pathReplacer = strings.NewReplacer(
	"/", "-", "\\", "-", ":", "-", "*", "-", "?", "-",
	"\"", "-", "<", "-", ">", "-", "|", "-",
)

// FetchEpisodeInfo scrapes an episode page for its audio URL and titles.
// Podcast players publish these through Open Graph meta tags.
func FetchEpisodeInfo(pageURL string) (*Episode, error) {
	resp, err := http.Get(pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	audioURL, _ := doc.Find(`meta[property="og:audio"]`).First().Attr("content")
	title, _ := doc.Find(`meta[property="og:title"]`).First().Attr("content")
	if audioURL == "" || title == "" {
		return nil, fmt.Errorf("cannot get audio url or episode title from %v", pageURL)
	}

	show, _ := doc.Find(`meta[property="og:site_name"]`).First().Attr("content")
	if show == "" {
		doc.Find(".podcast-title").Each(func(i int, s *goquery.Selection) {
			show = strings.TrimSpace(s.Text())
		})
	}
	if show == "" {
		show = "episodes"
	}

	return &Episode{AudioURL: audioURL, Title: title, Show: show}, nil
}

// DownloadEpisode fetches the episode behind pageURL and saves its audio
// under dir, grouped by show name. It returns the path of the saved file.
func DownloadEpisode(pageURL string, dir string) (string, error) {
	if _, err := url.ParseRequestURI(pageURL); err != nil {
		return "", fmt.Errorf("invalid episode url %v: %v", pageURL, err)
	}

	episode, err := FetchEpisodeInfo(pageURL)
	if err != nil {
		return "", err
	}

	fileExtension := audioFileExtension(episode.AudioURL)
	if fileExtension == "" {
		return "", fmt.Errorf("cannot get file extension for url %v", episode.AudioURL)
	}

	audioFilePath := buildEpisodeFilePath(dir, episode.Show, episode.Title, fileExtension)

	log.Printf("downloading episode %v into %v\n", episode.Title, filepath.Dir(audioFilePath))
	if err := downloadFile(episode.AudioURL, audioFilePath); err != nil {
		return "", fmt.Errorf("downloadFile failed for url %v, err: %v", episode.AudioURL, err)
	}
	return audioFilePath, nil
}

// BatchDownloadEpisodes downloads every episode URL into dir and returns the
// paths that were saved. Failed downloads are logged and skipped.
func BatchDownloadEpisodes(urls []string, dir string) []string {
	var paths []string
	for _, u := range urls {
		path, err := DownloadEpisode(u, dir)
		if err != nil {
			log.Printf("Error downloading episode %s - %v", u, err)
			continue
		}
		log.Printf("Finished downloading episode %s", u)
		paths = append(paths, path)
	}
	return paths
}

func buildEpisodeFilePath(dir string, showName string, episodeTitle string, fileExtension string) string {
	return filepath.Join(dir, validPath(showName), validPath(episodeTitle)+fileExtension)
}

// validPath rewrites characters that cannot appear in file names.
func validPath(path string) string {
	return pathReplacer.Replace(path)
}

// audioFileExtension returns the extension when the URL ends in a supported
// audio format.
func audioFileExtension(audioFileURL string) string {
	for _, ext := range supportedExtensions {
		if strings.HasSuffix(audioFileURL, ext) {
			return ext
		}
	}
	return ""
}

// downloadFile saves the file behind url to filePath, skipping the download
// when a local copy with the remote's size already exists.
func downloadFile(url string, filePath string) error {
	absFilePath, err := filepath.Abs(filePath)
	if err != nil {
		return err
	}

	head, err := http.Head(url)
	if err != nil {
		return err
	}
	head.Body.Close()

	remoteSize, err := strconv.ParseInt(head.Header.Get("Content-Length"), 10, 64)
	if err == nil {
		if fileInfo, statErr := os.Stat(absFilePath); statErr == nil && fileInfo.Size() == remoteSize {
			log.Printf("local file %v is the same size as remote file, no need to download\n", filePath)
			return nil
		}
	}

	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %v for url %v", resp.Status, url)
	}

	if err := files.EnsureDir(filepath.Dir(absFilePath)); err != nil {
		return err
	}

	out, err := os.Create(absFilePath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}
	return nil
}
