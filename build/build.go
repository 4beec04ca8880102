package main

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/roemer/gotaskr"
	"github.com/roemer/gotaskr/execr"
)

// Internal variables
var outputDirectory = ".build-output"
var version = "0.1.0"

type target struct {
	task string
	goos string
	arch string
	ext  string
}

var targets = []target{
	{task: "Compile:Windows", goos: "windows", arch: "amd64", ext: ".exe"},
	{task: "Compile:Linux", goos: "linux", arch: "amd64"},
	{task: "Compile:Mac", goos: "darwin", arch: "amd64"},
	{task: "Compile:MacArm", goos: "darwin", arch: "arm64"},
}

func main() {
	os.Exit(gotaskr.Execute())
}

func init() {
	for _, t := range targets {
		gotaskr.Task(t.task, func() error {
			os.Setenv("GOOS", t.goos)
			os.Setenv("GOARCH", t.arch)

			path, err := compile(t.ext)
			if err != nil {
				return err
			}
			return zipRelease(path)
		})
	}

	gotaskr.Task("Test", func() error {
		return execr.Run(true, "go", "test", "./...")
	})
}

func compile(ext string) (string, error) {
	outputFile := filepath.Join(outputDirectory, "plugman"+ext)
	ldflags := fmt.Sprintf("-X github.com/roemer/plugman/internal/app/plugman.Version=%s", version)
	return outputFile, execr.Run(true, "go", "build", "-ldflags", ldflags, "-o", outputFile, "./cmd/plugman")
}

func zipRelease(file string) error {
	if err := os.MkdirAll(outputDirectory, os.ModePerm); err != nil {
		return err
	}
	zipFilePath := filepath.Join(outputDirectory, fmt.Sprintf("plugman-%s-%s-%s.zip", os.Getenv("GOOS"), version, os.Getenv("GOARCH")))

	archive, err := os.Create(zipFilePath)
	if err != nil {
		return err
	}
	defer archive.Close()

	return createFlatZip(archive, file)
}

func createFlatZip(w io.Writer, files ...string) error {
	z := zip.NewWriter(w)
	for _, file := range files {
		if err := addFileToZip(z, file); err != nil {
			return err
		}
	}
	return z.Close()
}

func addFileToZip(z *zip.Writer, file string) error {
	src, err := os.Open(file)
	if err != nil {
		return err
	}
	defer src.Close()
	info, err := src.Stat()
	if err != nil {
		return err
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	// Only the base name is stored
	hdr.Name = filepath.Base(file)
	dst, err := z.CreateHeader(hdr)
	if err != nil {
		return err
	}
	_, err = io.Copy(dst, src)
	return err
}
