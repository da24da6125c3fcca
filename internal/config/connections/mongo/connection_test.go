package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionInfoURI(t *testing.T) {
	info := ConnectionInfo{User: "root", Password: "p@ss", Host: "db", Port: "27017", DB: "school_admin", AuthSource: "admin"}

	assert.Equal(t, "mongodb://root:p%40ss@db:27017/school_admin?authSource=admin", info.URI())
	assert.Equal(t, "mongodb+srv://cluster/app", ConnectionInfo{Scheme: "mongodb+srv", Host: "cluster", DB: "app"}.URI())
}
