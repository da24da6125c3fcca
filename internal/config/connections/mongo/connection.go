package mongo

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type ConnectionInfo struct {
	Scheme     string
	User       string
	Password   string
	Host       string
	Port       string
	DB         string
	AuthSource string
}

// URI builds the connection string, escaping credentials.
func (i ConnectionInfo) URI() string {
	u := url.URL{Scheme: i.Scheme, Host: i.Host, Path: "/" + i.DB}
	if u.Scheme == "" {
		u.Scheme = "mongodb"
	}
	if i.Port != "" {
		u.Host += ":" + i.Port
	}
	if i.User != "" {
		if i.Password != "" {
			u.User = url.UserPassword(i.User, i.Password)
		} else {
			u.User = url.User(i.User)
		}
	}
	if i.AuthSource != "" {
		u.RawQuery = url.Values{"authSource": {i.AuthSource}}.Encode()
	}
	return u.String()
}

type Mongo struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewConnection(ctx context.Context, info ConnectionInfo) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(info.URI()))
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping %s: %w", info.Host, err)
	}

	return &Mongo{Client: client, Database: client.Database(info.DB)}, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	if m.Client != nil {
		return m.Client.Disconnect(ctx)
	}
	return nil
}
