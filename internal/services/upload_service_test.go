package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"testing"
	"time"

	"natours_backend/internal/services/dto"
	"natours_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// fileHeaders собирает multipart-форму и возвращает файлы поля field
func fileHeaders(t *testing.T, field string, contents ...[]byte) []*multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for i, c := range contents {
		part, err := w.CreateFormFile(field, "file"+string(rune('a'+i))+".png")
		require.NoError(t, err)
		_, err = part.Write(c)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(10 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File[field]
}

func newTestUploadService(store *MockStorage) *uploadService {
	s := NewUploadService(store, UploadConfig{MaxFileSize: 5 << 20}).(*uploadService)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return s
}

func TestUploadService_UserPhoto(t *testing.T) {
	store := new(MockStorage)
	store.On("Save", mock.Anything, "img/users/user-u-1-1700000000000.jpeg", mock.Anything, "image/jpeg").Return(nil)

	name, err := newTestUploadService(store).UploadUserPhoto(context.Background(), "u-1", fileHeaders(t, "photo", pngBytes(t, 800, 600))[0])

	require.NoError(t, err)
	assert.Equal(t, "user-u-1-1700000000000.jpeg", name)
	store.AssertExpectations(t)
}

func TestUploadService_RejectsNonImage(t *testing.T) {
	store := new(MockStorage)

	_, err := newTestUploadService(store).UploadUserPhoto(context.Background(), "u-1",
		fileHeaders(t, "photo", []byte("#!/bin/sh\necho definitely not a picture\n"))[0])

	assert.Equal(t, apperrors.ErrNotAnImage, err)
	store.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadService_RejectsLargeFile(t *testing.T) {
	store := new(MockStorage)
	s := NewUploadService(store, UploadConfig{MaxFileSize: 10}).(*uploadService)

	_, err := s.UploadUserPhoto(context.Background(), "u-1", fileHeaders(t, "photo", pngBytes(t, 20, 20))[0])

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.HTTPCode)
}

func TestUploadService_TourImages(t *testing.T) {
	store := new(MockStorage)
	store.On("Save", mock.Anything, mock.Anything, mock.Anything, "image/jpeg").Return(nil)

	img := pngBytes(t, 300, 200)
	files := &dto.TourImageFiles{
		Cover:  fileHeaders(t, "imageCover", img)[0],
		Images: fileHeaders(t, "images", img, img, img),
	}

	names, err := newTestUploadService(store).UploadTourImages(context.Background(), "tour-1", files)

	require.NoError(t, err)
	assert.Equal(t, "tour-tour-1-1700000000000-cover.jpeg", names.Cover)
	assert.Equal(t, []string{
		"tour-tour-1-1700000000000-1.jpeg",
		"tour-tour-1-1700000000000-2.jpeg",
		"tour-tour-1-1700000000000-3.jpeg",
	}, names.Images)
	store.AssertNumberOfCalls(t, "Save", 4)
}

func TestUploadService_TooManyTourImages(t *testing.T) {
	img := pngBytes(t, 10, 10)
	files := &dto.TourImageFiles{Images: fileHeaders(t, "images", img, img, img, img)}

	_, err := newTestUploadService(new(MockStorage)).UploadTourImages(context.Background(), "tour-1", files)

	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.HTTPCode)
}

func TestUploadService_TourImagesCleanupOnFailure(t *testing.T) {
	store := new(MockStorage)
	store.On("Save", mock.Anything, "img/tours/tour-tour-1-1700000000000-cover.jpeg", mock.Anything, mock.Anything).Return(nil)
	store.On("Save", mock.Anything, "img/tours/tour-tour-1-1700000000000-1.jpeg", mock.Anything, mock.Anything).Return(errors.New("disk full"))
	store.On("Delete", mock.Anything, mock.Anything).Return(nil)

	img := pngBytes(t, 30, 20)
	files := &dto.TourImageFiles{
		Cover:  fileHeaders(t, "imageCover", img)[0],
		Images: fileHeaders(t, "images", img),
	}

	_, err := newTestUploadService(store).UploadTourImages(context.Background(), "tour-1", files)

	require.Error(t, err)
	store.AssertCalled(t, "Delete", mock.Anything, "img/tours/tour-tour-1-1700000000000-cover.jpeg")
	store.AssertCalled(t, "Delete", mock.Anything, "img/tours/tour-tour-1-1700000000000-1.jpeg")
}
