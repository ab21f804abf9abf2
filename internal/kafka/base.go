package kafka

import (
	"crypto/tls"

	"github.com/Muhammad-Hassan-student/Softxic-ERP-System-sub002/internal/config"
	"github.com/Shopify/sarama"
)

func GetSaramaConfig(cfg *config.Configuration) *sarama.Config {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V2_1_0_0
	saramaConfig.ClientID = cfg.Kafka.ClientID

	// "earliest" ensures that when a consumer starts with no initial offset
	// or the current offset is out of range, it starts from the oldest message
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true

	if cfg.Kafka.TLS {
		saramaConfig.Net.TLS.Enable = true
		saramaConfig.Net.TLS.Config = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	return saramaConfig
}
