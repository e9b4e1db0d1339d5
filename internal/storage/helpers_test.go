package storage_test

import "trustnet/internal/config"

func configMinIO(endpoint, access, secret, bucket string) config.MinIOConfig {
	return config.MinIOConfig{Endpoint: endpoint, AccessKey: access, SecretKey: secret, Bucket: bucket}
}
