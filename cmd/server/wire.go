// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"blood_donation_dashboard/internal/apiclient"
	"blood_donation_dashboard/internal/app"
	"blood_donation_dashboard/internal/auth"
	"blood_donation_dashboard/internal/bloodrequest"
	"blood_donation_dashboard/internal/config"
	"blood_donation_dashboard/internal/dashboard"
	"blood_donation_dashboard/internal/donor"
	"blood_donation_dashboard/internal/filestorage"
	"blood_donation_dashboard/internal/firebase"
	"blood_donation_dashboard/internal/funding"
	"blood_donation_dashboard/internal/jobs"
	"blood_donation_dashboard/internal/lifecycle"
	"blood_donation_dashboard/internal/middleware"
	"blood_donation_dashboard/internal/navigation"
	"blood_donation_dashboard/internal/platform/metrics"
	"blood_donation_dashboard/internal/profile"
	"blood_donation_dashboard/internal/registration"
	"blood_donation_dashboard/internal/requeststore"
	"blood_donation_dashboard/internal/rolegate"
	"blood_donation_dashboard/internal/session"

	"github.com/google/wire"
)

// sessionSet provides the signed-in identity and its persistence.
var sessionSet = wire.NewSet(
	provideLogger,
	provideDatabase,
	metrics.New,
	firebase.NewFirebaseService,
	wire.Bind(new(session.Provider), new(*firebase.FirebaseService)),
	session.NewGORMStore,
	session.New,
)

// initializeSession builds only what the CLI commands need.
func initializeSession(cfg *config.Config) (*session.Session, func(), error) {
	wire.Build(sessionSet)
	return nil, nil, nil
}

// initializeServer is the main Wire injector.
func initializeServer(cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		sessionSet,
		session.NewPreferences,
		navigation.NewTracker,
		wire.Bind(new(navigation.Navigator), new(*navigation.Tracker)),

		// Remote backend
		apiclient.NewClient,
		wire.Bind(new(apiclient.Credentials), new(*session.Session)),
		wire.Bind(new(requeststore.API), new(*apiclient.Client)),
		wire.Bind(new(profile.API), new(*apiclient.Client)),
		wire.Bind(new(donor.Patcher), new(*apiclient.Client)),

		// Profile and role gate
		profile.NewService,
		wire.Bind(new(profile.Identity), new(*session.Session)),
		rolegate.New,
		wire.Bind(new(rolegate.SessionView), new(*session.Session)),
		wire.Bind(new(rolegate.RoleResolver), new(*profile.Service)),
		middleware.NewGuard,
		wire.Bind(new(middleware.Authorizer), new(*rolegate.Gate)),
		wire.Bind(new(middleware.Identities), new(*session.Session)),

		// List stores
		lifecycle.NewEngine,
		requeststore.NewCache,

		bloodrequest.NewStore,
		bloodrequest.NewService,
		wire.Bind(new(bloodrequest.Service), new(*bloodrequest.ServiceImplementation)),
		wire.Bind(new(bloodrequest.Profiles), new(*profile.Service)),
		wire.Bind(new(bloodrequest.Identities), new(*session.Session)),
		bloodrequest.NewHandler,

		registration.NewStore,
		registration.NewService,
		wire.Bind(new(registration.Service), new(*registration.ServiceImplementation)),
		wire.Bind(new(registration.Identities), new(*session.Session)),
		registration.NewHandler,

		donor.NewStore,
		donor.NewService,
		wire.Bind(new(donor.Service), new(*donor.ServiceImplementation)),
		wire.Bind(new(donor.Refresher), new(*profile.Service)),
		wire.Bind(new(donor.Forgetter), new(*rolegate.Gate)),
		wire.Bind(new(donor.Subscriber), new(*session.Session)),
		donor.NewHandler,

		funding.NewStore,
		funding.NewService,
		wire.Bind(new(funding.Service), new(*funding.ServiceImplementation)),
		wire.Bind(new(funding.Identities), new(*session.Session)),
		funding.NewHandler,

		dashboard.NewService,
		wire.Bind(new(dashboard.Requests), new(*bloodrequest.ServiceImplementation)),
		wire.Bind(new(dashboard.Donors), new(*donor.ServiceImplementation)),
		wire.Bind(new(dashboard.Funding), new(*funding.ServiceImplementation)),
		dashboard.NewHandler,

		profile.NewHandler,
		filestorage.NewAvatarStore,
		filestorage.NewHandler,
		wire.Bind(new(filestorage.Identities), new(*session.Session)),
		auth.NewHandler,
		wire.Bind(new(auth.Sessions), new(*session.Session)),
		wire.Bind(new(auth.PreferenceStore), new(*session.Preferences)),
		wire.Bind(new(auth.Navigation), new(*navigation.Tracker)),

		jobs.NewSessionExpiryJob,
		wire.Bind(new(jobs.Sessions), new(*session.Session)),

		// Application Layer
		app.NewServer,
	)
	return nil, nil, nil
}
