package main

import (
	"log"
	"time"

	config "github.com/hoangvu1204/consult_care/configs"
	"github.com/hoangvu1204/consult_care/database"
	"github.com/hoangvu1204/consult_care/handlers"
	"github.com/hoangvu1204/consult_care/jobs"
	"github.com/hoangvu1204/consult_care/payments"
	"github.com/hoangvu1204/consult_care/repository"
	"github.com/hoangvu1204/consult_care/routes"
	"github.com/hoangvu1204/consult_care/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()

	slotRepo := repository.NewSlotRepo(database.DB)
	apptRepo := repository.NewAppointmentRepo(database.DB)
	accountRepo := repository.NewAccountRepo(database.DB)
	serviceRepo := repository.NewServiceRepo(database.DB)

	booking := services.NewBookingService(slotRepo, apptRepo, accountRepo, serviceRepo)

	vnpay := payments.NewVNPayGateway(
		config.Config("VNPAY_TMN_CODE"),
		config.Config("VNPAY_HASH_SECRET"),
		config.Config("VNPAY_PAY_URL"),
		config.Config("VNPAY_RETURN_URL"),
	)
	momo := payments.NewMoMoGateway(
		config.Config("MOMO_PARTNER_CODE"),
		config.Config("MOMO_ACCESS_KEY"),
		config.Config("MOMO_SECRET_KEY"),
		config.Config("MOMO_ENDPOINT"),
		config.Config("MOMO_REDIRECT_URL"),
		config.Config("MOMO_IPN_URL"),
	)
	reconciler := services.NewPaymentReconciler(apptRepo, vnpay, momo)

	bookingHandler := handlers.NewBookingHandler(booking, apptRepo)
	slotHandler := handlers.NewSlotHandler(slotRepo)
	paymentHandler := handlers.NewPaymentHandler(reconciler, apptRepo, serviceRepo, vnpay, momo)

	c := cron.New()
	c.AddFunc("*/10 * * * *", func() {
		jobs.ExpireStalePendingAppointments(booking, apptRepo, 30*time.Minute)
	})
	go c.Start()
	log.Println("✅ Cron job for pending appointment expiry scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "Consult Care",
		CaseSensitive:     true,
		StrictRouting:     true,
		EnablePrintRoutes: true,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Asia/Ho_Chi_Minh",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to Consult Care API",
		})
	})

	routes.SlotRoutes(app, slotHandler)
	routes.BookingRoutes(app, bookingHandler)
	routes.PaymentRoutes(app, paymentHandler)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	log.Println("✅ Server is running on port 8080")
	err := app.Listen(":8080")
	if err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
