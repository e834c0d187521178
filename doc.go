// SPDX-License-Identifier: MIT
// Copyright (c) 2026 Church Presenter authors
// Source: github.com/churchpresenter/cpres

/*
Package cpres reads and writes presentation bundles (.cpres files).
A bundle is a ZIP archive with a fixed layout:

	manifest.json      required object with formatVersion and presentationId
	slides.json        opaque JSON text
	arrangement.json   opaque JSON text
	themes/*.json      zero or more theme documents
	media/<id8>.<ext>  imported media payloads
	fonts/<id8>.<ext>  imported font payloads

JSON payloads are returned and accepted as raw text; only the manifest is
checked. Media payloads are never loaded by Open.

Error handling (summary):
  - every error wraps one sentinel (ErrIO, ErrFormat, ErrJSON, ErrValidation,
    ErrMissingEntry and friends), test with errors.Is;
  - KindOf maps any returned error to a coarse ErrorKind tag;
  - messages name the file, entry, or manifest key involved.

# Reading

Open a bundle and read its text payloads:

	b, err := cpres.Open("service.cpres")
	if err != nil {
	    return err
	}
	_ = b.Slides

Read one media payload without parsing anything else:

	data, err := cpres.ReadMedia("service.cpres", "media/3f2a9c1b.png")
	if err != nil {
	    return err
	}
	_ = data

For metadata-only scans:

	entries, err := cpres.ListEntries("service.cpres")
	if err != nil {
	    return err
	}
	_ = entries

# Importing

Import builds entries for files that will later be written into a bundle:

	media, err := cpres.ImportMedia([]string{"/photos/cross.jpg", "/audio/intro.mp3"})
	if err != nil {
	    return err
	}
	// media[0].Path == "media/<first 8 hex of id>.jpg"

# Saving

Save writes to a temporary file next to the destination and renames it into
place; the destination is either unchanged or fully replaced:

	err := cpres.Save("service.cpres", &cpres.BundleState{
	    Manifest:    manifest,
	    Slides:      slides,
	    Arrangement: arrangement,
	    Media: []cpres.MediaFileRef{
	        {ID: media[0].ID, SourcePath: "/photos/cross.jpg", BundlePath: media[0].Path},
	    },
	})

Media already stored in a bundle is carried over without decompression by
pointing SourcePath at the bundle. Entries are stored uncompressed when they
match Store rules (github.com/woozymasta/pathrules syntax):

	res, err := cpres.SaveWithOptions("service.cpres", state, cpres.SaveOptions{
	    PreviousBundle: "service.cpres",
	    Store:          cpres.DefaultStoreRules(),
	    BackupKeep:     2,
	    OnEntryDone: func(entry cpres.SaveEntryProgress) {
	        // progress callback per written entry
	    },
	})
	_ = res.CarriedEntries

To edit an existing bundle in one transaction:

	editor, err := cpres.OpenEditor("service.cpres")
	if err != nil {
	    return err
	}
	if err := editor.AddMedia(media[0], "/photos/cross.jpg"); err != nil {
	    return err
	}
	if err := editor.RemoveMedia("media/0badc0de.png"); err != nil {
	    return err
	}
	if _, err := editor.Commit(cpres.SaveOptions{}); err != nil {
	    return err
	}

# Extracting

Extract all media and fonts to a directory (parallel workers):

	err := cpres.ExtractMedia(ctx, "service.cpres", "out/", cpres.ExtractOptions{MaxWorkers: 4})
*/
package cpres
