package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"flockApp/crud"
	"flockApp/http"
	"flockApp/storage"
)

// main is the app's entry point.
func main() {
	// Check if the flag "-prod" has been provided. It means that we're running
	// in production, where a .config.json file is required before the
	// application starts.
	productionBool := flag.Bool("prod", false, "Provide this flag in production to ensure that a .config.json file is provided before the application starts.")
	flag.Parse()

	config := LoadConfig(*productionBool)
	initLogger(config.IsProd())

	// Open a database connection and execute migrations.
	db := NewDB(config.Database.ConnectionInfo())
	err := Open(db, config.IsProd())
	must(err)
	defer Close(db)
	err = AutoMigrate(db)
	must(err)

	// Start the crud services.
	services, err := crud.NewServices(
		db.Gorm,
		crud.WithUser(config.HMACKey, config.Pepper),
		crud.WithFollow(),
		crud.WithNotification(),
		crud.WithPost(),
		crud.WithLike(),
	)
	must(err)

	// The media store keeps uploaded profile, cover and post images.
	images := storage.NewImageService(config.ImagesDir)

	// Set up a webserver and serve the app.
	server := http.NewServer(config.IsProd(), config.CSRFKey, services, images, config.ImagesDir)
	server.Run(config.Port)
}

// initLogger configures the shared logrus logger. Production logs json to
// stdout for the log shipper, development logs are kept human-readable.
func initLogger(isProd bool) {
	logrus.SetOutput(os.Stdout)
	if isProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(logrus.DebugLevel)
	}
}

// must is a little helper for shortening the panic instruction.
func must(err error) {
	if err != nil {
		panic(err)
	}
}
