package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/yashrajoria/asset-inventory-backend/database"
	aws_pkg "github.com/yashrajoria/asset-inventory-backend/pkg/aws"
	ddb "github.com/yashrajoria/asset-inventory-backend/pkg/dynamodb"
	"github.com/yashrajoria/asset-inventory-backend/repository"
)

func main() {
	var mongoURI, dbName, table string
	var skipDynamo bool
	flag.StringVar(&mongoURI, "mongo", os.Getenv("MONGO_URI"), "MongoDB URI")
	flag.StringVar(&dbName, "db", os.Getenv("MONGO_DB_NAME"), "MongoDB database name")
	flag.StringVar(&table, "table", os.Getenv("DDB_TABLE_IMPORTS"), "DynamoDB import history table name")
	flag.BoolVar(&skipDynamo, "skip-dynamo", false, "only create the MongoDB indexes")
	flag.Parse()

	if mongoURI == "" {
		log.Fatal("MONGO_URI must be set or provided via -mongo")
	}
	if dbName == "" {
		dbName = "asset_inventory"
	}
	if table == "" {
		table = "AssetImports"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	m, err := database.ConnectMongo(mongoURI, dbName)
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer m.Close()

	if err := repository.NewAssetRepository(m.DB, database.AssetsCollection).EnsureIndexes(ctx); err != nil {
		log.Fatalf("asset indexes: %v", err)
	}
	log.Printf("ensured indexes on %s.%s", dbName, database.AssetsCollection)

	if err := repository.NewRoomRepository(m.DB, database.RoomsCollection).EnsureIndexes(ctx); err != nil {
		log.Fatalf("room indexes: %v", err)
	}
	log.Printf("ensured indexes on %s.%s", dbName, database.RoomsCollection)

	if !skipDynamo {
		awsCfg, err := aws_pkg.LoadAWSConfig(ctx)
		if err != nil {
			log.Fatalf("aws config: %v", err)
		}
		if err := ddb.EnsureHistoryTable(ctx, ddb.NewClientFromConfig(awsCfg), table); err != nil {
			log.Fatalf("dynamodb table: %v", err)
		}
		log.Printf("ensured dynamodb table %s", table)
	}

	fmt.Println("Done.")
}
