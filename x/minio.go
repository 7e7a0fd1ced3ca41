/*
 * SPDX-FileCopyrightText: © Metastore, Inc. and Contributors
 * SPDX-License-Identifier: Apache-2.0
 */

package x

import (
	"os"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
)

const (
	// MinioAccessKeyEnv and MinioSecretKeyEnv hold the credentials used to
	// reach a minio or S3 compatible object store.
	MinioAccessKeyEnv = "MINIO_ACCESS_KEY"
	MinioSecretKeyEnv = "MINIO_SECRET_KEY"
)

// NewMinioClient returns a minio client for the given endpoint, picking up
// credentials from the environment. An empty access key falls back to the
// AWS credential chain, so IAM-style auth keeps working on EC2.
func NewMinioClient(endpoint string, secure bool) (*minio.Client, error) {
	if endpoint == "" {
		return nil, errors.Errorf("object store endpoint must not be empty")
	}

	var creds *credentials.Credentials
	accessKey := os.Getenv(MinioAccessKeyEnv)
	secretKey := os.Getenv(MinioSecretKeyEnv)
	if accessKey != "" {
		creds = credentials.NewStaticV4(accessKey, secretKey, "")
	} else {
		creds = credentials.NewIAM("")
	}

	mc, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: secure,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "while creating minio client for %q", endpoint)
	}
	return mc, nil
}
