// Package images uploads order photos to the Cloudinary media host and
// hands back the hosted URL that goes into the =IMAGE() sheet formulas.
package images

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"
)

// uploadFolder groups every order photo under one Cloudinary folder.
const uploadFolder = "orders"

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, filename string, content io.Reader) (string, error)
}

type cloudinaryUploader struct {
	baseURL   string
	cloudName string
	apiKey    string
	apiSecret string
	http      *http.Client
	now       func() time.Time
}

// NewCloudinaryUploader builds an Uploader against the Cloudinary signed
// upload API.
func NewCloudinaryUploader(cloudName, apiKey, apiSecret string) Uploader {
	return &cloudinaryUploader{
		baseURL:   "https://api.cloudinary.com/v1_1",
		cloudName: cloudName,
		apiKey:    apiKey,
		apiSecret: apiSecret,
		http:      &http.Client{Timeout: 30 * time.Second},
		now:       time.Now,
	}
}

// signature is SHA-1 over the sorted parameter string with the API secret
// appended, per Cloudinary's signed-upload contract.
func (u *cloudinaryUploader) signature(folder string, timestamp int64) string {
	toSign := fmt.Sprintf("folder=%s&timestamp=%d%s", folder, timestamp, u.apiSecret)
	sum := sha1.Sum([]byte(toSign))
	return hex.EncodeToString(sum[:])
}

func (u *cloudinaryUploader) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	timestamp := u.now().Unix()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return "", fmt.Errorf("buffer upload content: %w", err)
	}
	fields := map[string]string{
		"api_key":   u.apiKey,
		"timestamp": strconv.FormatInt(timestamp, 10),
		"folder":    uploadFolder,
		"signature": u.signature(uploadFolder, timestamp),
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return "", fmt.Errorf("build upload form: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build upload form: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/image/upload", u.baseURL, u.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("upload image: cloudinary returned %d: %s", resp.StatusCode, detail)
	}

	var result struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("upload image: response carried no secure_url")
	}
	return result.SecureURL, nil
}
