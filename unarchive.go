package main

import (
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4"
)

// unpackArchive распаковывает архив во временный каталог и возвращает путь
// к извлеченному файлу. Исходный файл не трогается, при ошибке распаковки
// временный каталог удаляется. Пустая строка означает, что путь не
// является поддерживаемым архивом.
func unpackArchive(filePath string) (string, error) {
	ext := filepath.Ext(filePath)
	if ext == ".zip" {
		return unpackZipArchive(filePath)
	} else if ext == ".gz" {
		return unpackGzipArchive(filePath)
	} else if ext == ".lz4" {
		return unpackLZ4Archive(filePath)
	}
	return "", nil
}

func copyToFile(destPath string, r io.Reader) error {
	outFile, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer outFile.Close()
	_, err = io.Copy(outFile, r)
	return err
}

func unpackZipArchive(filePath string) (string, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	// Берем самый большой файл архива, остальное игнорируем
	var largestFile *zip.File
	var largestSize uint64
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if f.UncompressedSize64 > largestSize {
			largestFile = f
			largestSize = f.UncompressedSize64
		}
	}
	if largestFile == nil {
		return "", fmt.Errorf("zip archive %s has no files", filePath)
	}

	rc, err := largestFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	dir, err := os.MkdirTemp("", "dataset_profiler_*")
	if err != nil {
		return "", err
	}
	destPath := filepath.Join(dir, filepath.Base(largestFile.Name))
	if err := copyToFile(destPath, rc); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	return destPath, nil
}

func unpackGzipArchive(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	gr, err := gzip.NewReader(file)
	if err != nil {
		return "", err
	}
	defer gr.Close()

	dir, err := os.MkdirTemp("", "dataset_profiler_*")
	if err != nil {
		return "", err
	}
	destPath := filepath.Join(dir, strings.TrimSuffix(filepath.Base(filePath), ".gz"))
	if err := copyToFile(destPath, gr); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	return destPath, nil
}

func unpackLZ4Archive(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	dir, err := os.MkdirTemp("", "dataset_profiler_*")
	if err != nil {
		return "", err
	}
	destPath := filepath.Join(dir, strings.TrimSuffix(filepath.Base(filePath), ".lz4"))
	if err := copyToFile(destPath, lz4.NewReader(file)); err != nil {
		os.RemoveAll(dir)
		return "", err
	}
	return destPath, nil
}
