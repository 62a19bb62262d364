package network

import (
	"fmt"
	"net/url"
)

// LinkContract selects how the storage path of an upload is learned from the get-upload-link response.
// A deployment uses exactly one of them.
type LinkContract string

const (
	// ContractExplicit expects {upload_url, storage_path}.
	ContractExplicit LinkContract = "explicit"
	// ContractSignedURL expects {signed_url} and takes the storage path from the URL's path.
	ContractSignedURL LinkContract = "signed_url"
)

// Validate ...
func (c LinkContract) Validate() error {
	switch c {
	case ContractExplicit, ContractSignedURL:
		return nil
	default:
		return fmt.Errorf("unknown link contract: %q", string(c))
	}
}

func (c LinkContract) resolve(response uploadLinkResponse) (UploadLink, error) {
	switch c {
	case ContractExplicit:
		if response.UploadURL == "" {
			return UploadLink{}, fmt.Errorf("response has no upload_url")
		}
		if response.StoragePath == "" {
			return UploadLink{}, fmt.Errorf("response has no storage_path")
		}
		return UploadLink{URL: response.UploadURL, StoragePath: response.StoragePath}, nil
	case ContractSignedURL:
		if response.SignedURL == "" {
			return UploadLink{}, fmt.Errorf("response has no signed_url")
		}
		storagePath, err := storagePathOf(response.SignedURL)
		if err != nil {
			return UploadLink{}, err
		}
		return UploadLink{URL: response.SignedURL, StoragePath: storagePath}, nil
	default:
		return UploadLink{}, c.Validate()
	}
}

// storagePathOf returns the escaped path of a signed URL, the query (which holds the signature) is dropped.
func storagePathOf(signedURL string) (string, error) {
	u, err := url.Parse(signedURL)
	if err != nil {
		return "", fmt.Errorf("parse signed URL: %w", err)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("signed URL is not absolute")
	}
	path := u.EscapedPath()
	if path == "" || path == "/" {
		return "", fmt.Errorf("signed URL has no object path")
	}
	return path, nil
}
