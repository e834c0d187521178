// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

package cpres

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// backupSuffix is appended to the bundle path for the newest backup generation.
const backupSuffix = ".bak"

// writeBackup copies the current bundle to `<path>.bak` after rotating older generations.
// A missing bundle is not an error; there is nothing to keep.
func writeBackup(path string, keep int) error {
	if keep <= 0 {
		return nil
	}

	exists, err := fileExists(path)
	if err != nil || !exists {
		return err
	}

	backupPath := path + backupSuffix
	if err := prepareBackupSlot(backupPath, keep); err != nil {
		return err
	}

	if err := copyFile(path, backupPath); err != nil {
		return fmt.Errorf("%w: backup %s: %w", ErrIO, path, err)
	}

	return nil
}

// prepareBackupSlot rotates/removes existing backup generations before new save.
func prepareBackupSlot(backupPath string, keep int) error {
	if keep < 0 {
		keep = 0
	}

	switch keep {
	case 0, 1:
		return removeIfExists(backupPath)
	default:
		oldest := fmt.Sprintf("%s.%d", backupPath, keep-1)
		if err := removeIfExists(oldest); err != nil {
			return err
		}

		for i := keep - 2; i >= 1; i-- {
			from := fmt.Sprintf("%s.%d", backupPath, i)
			to := fmt.Sprintf("%s.%d", backupPath, i+1)
			if err := renameIfExists(from, to); err != nil {
				return err
			}
		}

		return renameIfExists(backupPath, backupPath+".1")
	}
}

// renameIfExists renames source to destination when source exists.
func renameIfExists(from string, to string) error {
	exists, err := fileExists(from)
	if err != nil || !exists {
		return err
	}

	if err := removeIfExists(to); err != nil {
		return err
	}

	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("%w: rename %s to %s: %w", ErrIO, from, to, err)
	}

	return nil
}

// removeIfExists removes file when present.
func removeIfExists(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) || err == nil {
		return nil
	}

	return fmt.Errorf("%w: remove %s: %w", ErrIO, path, err)
}

// copyFile copies src into a freshly truncated dst and syncs it.
func copyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}

	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}
