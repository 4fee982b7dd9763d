package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/helmetkart/helmet-backend/config"
	"github.com/helmetkart/helmet-backend/internal/app/model"
	"github.com/helmetkart/helmet-backend/internal/app/repository"
	"github.com/helmetkart/helmet-backend/internal/db"
	"github.com/helmetkart/helmet-backend/pkg/logger"
	"github.com/helmetkart/helmet-backend/pkg/util"
	"github.com/urfave/cli/v2"
	"gorm.io/gorm"
)

func main() {
	app := &cli.App{
		Name:  "helmetkart-seed",
		Usage: "load catalogue, coupons and admin accounts into the HelmetKart database",
		Before: func(c *cli.Context) error {
			logger.Initialize(logger.Config{Level: "info", Format: "console", EnableColor: true})
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "products",
				Usage:     "import products and variants from an XLSX sheet",
				ArgsUsage: "<xlsx_file_path>",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "skip the confirmation prompt"},
				},
				Action: importProducts,
			},
			{
				Name:  "coupon",
				Usage: "create a discount coupon",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "code", Required: true},
					&cli.StringFlag{Name: "type", Value: string(model.DiscountPercentage), Usage: "PERCENTAGE or FIXED"},
					&cli.Float64Flag{Name: "value", Required: true},
					&cli.Float64Flag{Name: "min-purchase"},
					&cli.Float64Flag{Name: "max-discount", Usage: "cap for PERCENTAGE coupons, 0 for none"},
					&cli.IntFlag{Name: "usage-limit", Value: 100},
					&cli.DurationFlag{Name: "valid-for", Value: 30 * 24 * time.Hour},
					&cli.StringFlag{Name: "description"},
				},
				Action: createCoupon,
			},
			{
				Name:  "admin",
				Usage: "create an administrator account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"SEED_ADMIN_PASSWORD"}},
					&cli.StringFlag{Name: "name", Value: "HelmetKart Admin"},
				},
				Action: createAdmin,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Fatal("Seed command failed", err)
	}
}

func openDatabase() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	database, err := db.Open(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Migrate(database); err != nil {
		_ = db.Close(database)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return database, nil
}

func importProducts(c *cli.Context) error {
	filePath := c.Args().First()
	if filePath == "" {
		return cli.Exit("usage: seed products <xlsx_file_path>", 2)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	products, report, err := readProductsFromXLSX(filePath)
	if err != nil {
		return err
	}
	fmt.Printf("Products: %d, variants: %d, skipped rows: %d\n", len(products), report.Variants, report.Skipped)

	if !c.Bool("yes") && !confirm("Do you want to proceed with the import? (yes/no): ") {
		fmt.Println("Import cancelled.")
		return nil
	}

	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close(database)

	imported, err := saveProducts(repository.NewProductRepository(database), products)
	if err != nil {
		return err
	}
	fmt.Printf("Import completed: %d products imported\n", imported)
	return nil
}

// saveProducts inserts each product with its variants and stops at the
// first failure.
func saveProducts(repo repository.ProductRepository, products []model.Product) (int, error) {
	for i := range products {
		if err := repo.Create(&products[i]); err != nil {
			return i, fmt.Errorf("failed to import %q: %w", products[i].Name, err)
		}
	}
	return len(products), nil
}

func createCoupon(c *cli.Context) error {
	coupon, err := couponFromFlags(c, time.Now())
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close(database)

	if err := repository.NewCouponRepository(database).Create(coupon); err != nil {
		return fmt.Errorf("failed to create coupon: %w", err)
	}
	fmt.Printf("Coupon %s created (valid until %s)\n", coupon.Code, coupon.ValidUntil.Format(time.RFC3339))
	return nil
}

func couponFromFlags(c *cli.Context, now time.Time) (*model.Coupon, error) {
	discountType := model.DiscountType(strings.ToUpper(c.String("type")))
	if discountType != model.DiscountPercentage && discountType != model.DiscountFixed {
		return nil, fmt.Errorf("unknown discount type %q", c.String("type"))
	}
	value := c.Float64("value")
	if value <= 0 || (discountType == model.DiscountPercentage && value > 100) {
		return nil, fmt.Errorf("invalid discount value %.2f", value)
	}
	if c.Int("usage-limit") <= 0 {
		return nil, fmt.Errorf("usage limit must be positive")
	}

	coupon := &model.Coupon{
		Code:          c.String("code"),
		Description:   c.String("description"),
		DiscountType:  discountType,
		DiscountValue: value,
		MinPurchase:   c.Float64("min-purchase"),
		UsageLimit:    c.Int("usage-limit"),
		ValidFrom:     now,
		ValidUntil:    now.Add(c.Duration("valid-for")),
		IsActive:      true,
	}
	if maxDiscount := c.Float64("max-discount"); maxDiscount > 0 && discountType == model.DiscountPercentage {
		coupon.MaxDiscount = &maxDiscount
	}
	return coupon, nil
}

func createAdmin(c *cli.Context) error {
	password := c.String("password")
	if err := util.ValidatePasswordStrength(password); err != nil {
		return cli.Exit(err.Error(), 2)
	}
	hash, err := util.HashPassword(password)
	if err != nil {
		return err
	}

	database, err := openDatabase()
	if err != nil {
		return err
	}
	defer db.Close(database)

	users := repository.NewUserRepository(database)
	if existing, err := users.FindByEmail(c.String("email")); err == nil {
		if err := users.SetRole(existing.ID, model.RoleAdmin); err != nil {
			return fmt.Errorf("failed to promote %s: %w", existing.Email, err)
		}
		fmt.Printf("Existing user %s promoted to admin\n", existing.Email)
		return nil
	}

	admin := &model.User{
		Email:        c.String("email"),
		PasswordHash: hash,
		Name:         c.String("name"),
		Role:         model.RoleAdmin,
	}
	if err := users.Create(admin); err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	fmt.Printf("Admin %s created with id %d\n", admin.Email, admin.ID)
	return nil
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "yes" || answer == "y"
}
