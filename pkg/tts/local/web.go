package local

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"beyondwords/pkg/config"
	"beyondwords/pkg/tts"
)

// edgeVoices maps primary language subtags to Edge neural voices.
var edgeVoices = map[string]string{
	"en": "en-US-AvaMultilingualNeural",
	"es": "es-ES-ElviraNeural",
	"fr": "fr-FR-VivienneNeural",
	"de": "de-DE-SeraphinaNeural",
	"it": "it-IT-ElsaNeural",
	"pt": "pt-BR-FranciscaNeural",
	"ja": "ja-JP-NanamiNeural",
	"ko": "ko-KR-SunHiNeural",
	"zh": "zh-CN-XiaoxiaoNeural",
}

// edgeStrategy streams mp3 audio over the Edge speech websocket. All
// connection parameters come from the environment; the strategy is
// disabled when they are absent.
type edgeStrategy struct {
	timeout  time.Duration
	maxChars int
}

func newEdgeStrategy(cfg *config.TTSConfig) *edgeStrategy {
	return &edgeStrategy{
		timeout:  time.Duration(cfg.Local.WebTimeout),
		maxChars: cfg.MaxWebChars,
	}
}

func (s *edgeStrategy) name() string { return "edge" }

func (s *edgeStrategy) available() bool {
	return os.Getenv("EDGE_TTS_BASE_URL") != ""
}

func (s *edgeStrategy) attempt(ctx context.Context, text, languageCode, outputPath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text = tts.Truncate(text, s.maxChars)

	voice, ok := edgeVoices[baseLanguage(languageCode)]
	if !ok {
		voice = edgeVoices["en"]
	}

	fullPath := outputPath + ".mp3"
	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	conn, err := s.dial(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
		_ = conn.SetWriteDeadline(deadline)
	}

	if err := s.sendConfig(conn); err != nil {
		return "", err
	}

	requestID := strings.ReplaceAll(uuid.New().String(), "-", "")
	if err := s.sendSSML(conn, voice, text, requestID); err != nil {
		return "", err
	}

	if err := s.consumeResponses(ctx, conn, file); err != nil {
		return "", err
	}

	if err := tts.VerifyAudioFile(fullPath); err != nil {
		return "", err
	}
	return "mp3", nil
}

func (s *edgeStrategy) dial(ctx context.Context) (*websocket.Conn, error) {
	baseURL := os.Getenv("EDGE_TTS_BASE_URL")
	origin := os.Getenv("EDGE_TTS_ORIGIN")
	userAgent := os.Getenv("EDGE_TTS_USER_AGENT")
	trustedClientToken := os.Getenv("EDGE_TTS_TRUSTED_CLIENT_TOKEN")
	version := os.Getenv("EDGE_TTS_SEC_MS_GEC_VERSION")
	if origin == "" || userAgent == "" || trustedClientToken == "" || version == "" {
		return nil, fmt.Errorf("EDGE_TTS_* environment configuration is incomplete")
	}

	header := http.Header{}
	header.Set("Origin", origin)
	header.Set("Pragma", "no-cache")
	header.Set("Cache-Control", "no-cache")
	header.Set("User-Agent", userAgent)
	header.Set("Accept-Encoding", "gzip, deflate, br, zstd")
	header.Set("Accept-Language", "en-US,en;q=0.9")

	muid := strings.ReplaceAll(uuid.New().String(), "-", "")
	header.Set("Cookie", fmt.Sprintf("muid=%s", muid))

	token := s.generateSecMSGec(trustedClientToken)
	wsURL := fmt.Sprintf("%s?TrustedClientToken=%s&Sec-MS-GEC=%s&Sec-MS-GEC-Version=%s",
		baseURL, trustedClientToken, token, version)

	var conn *websocket.Conn
	var dialErr error
	for i := 0; i < 3; i++ {
		var resp *http.Response
		conn, resp, dialErr = websocket.DefaultDialer.DialContext(ctx, wsURL, header)
		if dialErr == nil {
			return conn, nil
		}
		if resp != nil {
			slog.Warn("EdgeTTS: handshake failure", "status", resp.Status)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return nil, fmt.Errorf("websocket dial failed after retries: %w", dialErr)
}

// generateSecMSGec derives the clock-windowed handshake token.
// ticks = (unix + 11644473600) rounded down to 300s, in 100ns units.
func (s *edgeStrategy) generateSecMSGec(trustedClientToken string) string {
	nowSec := float64(time.Now().Unix())
	ticks := nowSec + 11644473600
	ticks -= float64(int64(ticks) % 300)
	ticks *= 1e7

	strToHash := fmt.Sprintf("%.0f%s", ticks, trustedClientToken)
	hash := sha256.Sum256([]byte(strToHash))
	return strings.ToUpper(hex.EncodeToString(hash[:]))
}

func (s *edgeStrategy) sendConfig(conn *websocket.Conn) error {
	configMsg := "Content-Type:application/json; charset=utf-8\r\nPath:speech.config\r\n\r\n{\"context\":{\"synthesis\":{\"audio\":{\"metadataoptions\":{\"sentenceBoundaryEnabled\":\"false\",\"wordBoundaryEnabled\":\"false\"},\"outputFormat\":\"audio-24khz-48kbitrate-mono-mp3\"}}}}"
	if err := conn.WriteMessage(websocket.TextMessage, []byte(configMsg)); err != nil {
		return fmt.Errorf("failed to send speech.config: %w", err)
	}
	return nil
}

func (s *edgeStrategy) sendSSML(conn *websocket.Conn, voice, text, requestID string) error {
	ssml := buildSSML(voice, text)
	tts.Log("EDGE", ssml, 0, nil)

	ssmlMsg := fmt.Sprintf("X-RequestId:%s\r\nContent-Type:application/ssml+xml\r\nPath:ssml\r\n\r\n%s", requestID, ssml)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(ssmlMsg)); err != nil {
		return fmt.Errorf("failed to send ssml: %w", err)
	}
	return nil
}

func buildSSML(voice, text string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\"", "&quot;",
		"'", "&apos;",
	)
	escapedText := replacer.Replace(text)
	return fmt.Sprintf("<speak version='1.0' xmlns='http://www.w3.org/2001/10/synthesis' xml:lang='en-US'><voice name='%s'>%s</voice></speak>", voice, escapedText)
}

func (s *edgeStrategy) consumeResponses(ctx context.Context, conn *websocket.Conn, file *os.File) error {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read message failed: %w", err)
		}

		if msgType == websocket.TextMessage {
			if strings.Contains(string(data), "Path:turn.end") {
				return nil
			}
		} else if msgType == websocket.BinaryMessage {
			if err := s.handleBinaryMessage(data, file); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

func (s *edgeStrategy) handleBinaryMessage(data []byte, file *os.File) error {
	if len(data) < 2 {
		return nil
	}
	headerLength := int(uint16(data[0])<<8 | uint16(data[1]))
	if len(data) < 2+headerLength {
		return nil
	}
	audioData := data[2+headerLength:]
	if len(audioData) > 0 {
		if _, err := file.Write(audioData); err != nil {
			return fmt.Errorf("write audio data failed: %w", err)
		}
	}
	return nil
}

// translateStrategy fetches mp3 audio from a translate-style HTTP TTS
// endpoint. Last resort of the chain.
type translateStrategy struct {
	baseURL  string
	timeout  time.Duration
	maxChars int
	client   *http.Client
}

const defaultTranslateURL = "https://translate.google.com/translate_tts"

func newTranslateStrategy(cfg *config.TTSConfig) *translateStrategy {
	baseURL := os.Getenv("WEB_TTS_BASE_URL")
	if baseURL == "" {
		baseURL = defaultTranslateURL
	}
	return &translateStrategy{
		baseURL:  baseURL,
		timeout:  time.Duration(cfg.Local.WebTimeout),
		maxChars: cfg.MaxWebChars,
		client:   &http.Client{},
	}
}

func (s *translateStrategy) name() string { return "translate" }

func (s *translateStrategy) available() bool { return true }

func (s *translateStrategy) attempt(ctx context.Context, text, languageCode, outputPath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text = tts.Truncate(text, s.maxChars)

	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", baseLanguage(languageCode))
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	tts.Log("TRANSLATE", text, resp.StatusCode, nil)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	fullPath := outputPath + ".mp3"
	file, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return "", fmt.Errorf("failed to write audio: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", err
	}

	if err := tts.VerifyAudioFile(fullPath); err != nil {
		return "", err
	}
	return "mp3", nil
}
