package main

import (
	"log"

	"market/internal/config"
	"market/internal/domain/model"
	"market/internal/handler"
	"market/internal/infra/db"
	infraRepo "market/internal/infra/repository"
	"market/internal/server"
	"market/internal/usecase"

	"github.com/joho/godotenv"
)

func main() {
	//.envは無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		log.Fatal(err)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.ProductImage{},
		&model.ProductLike{},
		&model.Cart{},
		&model.CartItem{},
		&model.Purchase{},
		&model.PurchaseItem{},
	); err != nil {
		log.Fatal(err)
	}

	//Repository（GORM実装）生成
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	imageRepo := infraRepo.NewProductImageGormRepository(gormDB)
	likeRepo := infraRepo.NewProductLikeGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	purchaseRepo := infraRepo.NewPurchaseGormRepository(gormDB)
	purchaseItemRepo := infraRepo.NewPurchaseItemGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//Usecase生成
	productUC := usecase.NewProductUsecase(productRepo, imageRepo, likeRepo, userRepo)
	cartUC := usecase.NewCartUsecase(cartRepo, cartItemRepo, productRepo, imageRepo)
	checkoutUC := usecase.NewCheckoutUsecase(txManager)
	purchaseUC := usecase.NewPurchaseUsecase(purchaseRepo, purchaseItemRepo, imageRepo, userRepo)
	userUC := usecase.NewUserUsecase(userRepo, productRepo, purchaseRepo, purchaseItemRepo, imageRepo, likeRepo)

	//Handler生成
	productH := handler.NewProductHandler(productUC)
	cartH := handler.NewCartHandler(cartUC, checkoutUC)
	purchaseH := handler.NewPurchaseHandler(purchaseUC)
	userH := handler.NewUserHandler(userUC, productUC)

	//Server起動
	e := server.New(cfg, productH, cartH, purchaseH, userH)

	addr := ":" + cfg.Port
	if err := server.Start(e, addr); err != nil {
		log.Fatal(err)
	}
}
