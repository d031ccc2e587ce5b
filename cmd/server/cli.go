package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shatlykos/cafe-management-system/internal/event"
	"github.com/shatlykos/cafe-management-system/internal/model"
	"github.com/shatlykos/cafe-management-system/internal/repository"
	"github.com/shatlykos/cafe-management-system/internal/repository/postgres"
	"github.com/shatlykos/cafe-management-system/internal/service"
	"github.com/shatlykos/cafe-management-system/internal/sse"
)

const consoleDateLayout = "2006-01-02"

// console is the interactive admin shell started by the "cli" subcommand.
// It talks to the same services as the HTTP API, so loyalty counters and
// audit events behave identically no matter which surface recorded them.
type console struct {
	in  *bufio.Scanner
	out io.Writer
	eof bool

	clients *service.ClientService
	scans   *service.ScanService
	menu    *service.MenuService
	finance *service.FinanceService
	exports *service.ExportService
}

func runConsole(args []string) error {
	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()

	pool, err := newDBPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	clientRepo := postgres.NewClientRepository(pool)
	visitRepo := postgres.NewVisitRepository(pool)
	eventRepo := postgres.NewClientEventRepository(pool)
	ingredientRepo := postgres.NewIngredientRepository(pool)
	dishRepo := postgres.NewDishRepository(pool)
	expenseRepo := postgres.NewExpenseRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)

	sseHub := sse.NewHub(nil)
	defer sseHub.Close()

	eventBus := event.NewBus()

	menuSvc := service.NewMenuService(ingredientRepo, dishRepo, nil)
	financeSvc := service.NewFinanceService(expenseRepo, saleRepo, menuSvc, nil)

	c := &console{
		in:      bufio.NewScanner(os.Stdin),
		out:     os.Stdout,
		clients: service.NewClientService(clientRepo, eventRepo, pool, eventBus, sseHub, nil),
		scans:   service.NewScanService(clientRepo, visitRepo, pool, eventBus, sseHub, nil),
		menu:    menuSvc,
		finance: financeSvc,
		exports: service.NewExportService(menuSvc, financeSvc, nil),
	}

	c.run(ctx)
	return nil
}

func (c *console) run(ctx context.Context) {
	for {
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, "=== Система управления кафе ===")
		fmt.Fprintln(c.out, "1. Ингредиенты")
		fmt.Fprintln(c.out, "2. Блюда")
		fmt.Fprintln(c.out, "3. Техкарты")
		fmt.Fprintln(c.out, "4. Себестоимость и наценка")
		fmt.Fprintln(c.out, "5. Расходы")
		fmt.Fprintln(c.out, "6. Продажи")
		fmt.Fprintln(c.out, "7. Финансовый отчет")
		fmt.Fprintln(c.out, "8. Экспорт в Excel")
		fmt.Fprintln(c.out, "9. Клиенты и лояльность")
		fmt.Fprintln(c.out, "0. Выход")

		switch c.prompt("\nВыберите раздел: ") {
		case "0":
			fmt.Fprintln(c.out, "До свидания!")
			return
		case "1":
			c.manageIngredients(ctx)
		case "2":
			c.manageDishes(ctx)
		case "3":
			c.manageRecipes(ctx)
		case "4":
			c.showCosts(ctx)
		case "5":
			c.manageExpenses(ctx)
		case "6":
			c.manageSales(ctx)
		case "7":
			c.showFinancialReport(ctx)
		case "8":
			c.exportToExcel(ctx)
		case "9":
			c.manageLoyalty(ctx)
		default:
			fmt.Fprintln(c.out, "Неверный выбор, попробуйте снова.")
		}
		if c.eof {
			return
		}
	}
}

func (c *console) manageIngredients(ctx context.Context) {
	for !c.eof {
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, "--- Ингредиенты ---")
		fmt.Fprintln(c.out, "1. Список ингредиентов")
		fmt.Fprintln(c.out, "2. Добавить ингредиент")
		fmt.Fprintln(c.out, "3. Изменить ингредиент")
		fmt.Fprintln(c.out, "4. Удалить ингредиент")
		fmt.Fprintln(c.out, "0. Назад")

		switch c.prompt("\nВыберите действие: ") {
		case "0":
			return
		case "1":
			c.listIngredients(ctx)
		case "2":
			name := c.prompt("Название: ")
			if name == "" {
				fmt.Fprintln(c.out, "Название не может быть пустым.")
				continue
			}
			unit := c.prompt("Единица измерения (кг, л, шт): ")
			price, ok := c.promptDecimal("Цена за единицу: ")
			if !ok {
				continue
			}
			req := service.IngredientRequest{
				Name:         name,
				Unit:         unit,
				PricePerUnit: price,
				Supplier:     c.promptOptional("Поставщик (необязательно): "),
				Notes:        c.promptOptional("Примечания (необязательно): "),
			}
			ingredient, err := c.menu.CreateIngredient(ctx, req)
			if err != nil {
				c.printError(err)
				continue
			}
			fmt.Fprintf(c.out, "Ингредиент добавлен! ID: %d\n", ingredient.ID)
		case "3":
			id, ok := c.promptInt64("ID ингредиента: ")
			if !ok {
				continue
			}
			current, err := c.menu.GetIngredient(ctx, id)
			if err != nil {
				c.printError(err)
				continue
			}
			fmt.Fprintf(c.out, "Текущие значения: %s, %s, %s\n",
				current.Name, current.Unit, current.PricePerUnit.StringFixed(2))
			req := service.IngredientRequest{
				Name:         current.Name,
				Unit:         current.Unit,
				PricePerUnit: current.PricePerUnit,
				Supplier:     current.Supplier,
				Notes:        current.Notes,
			}
			if v := c.prompt("Новое название (Enter — оставить): "); v != "" {
				req.Name = v
			}
			if v := c.prompt("Новая единица (Enter — оставить): "); v != "" {
				req.Unit = v
			}
			if v := c.prompt("Новая цена (Enter — оставить): "); v != "" {
				price, err := decimal.NewFromString(v)
				if err != nil {
					fmt.Fprintln(c.out, "Ошибка: неверный формат цены")
					continue
				}
				req.PricePerUnit = price
			}
			if _, err := c.menu.UpdateIngredient(ctx, id, req); err != nil {
				c.printError(err)
				continue
			}
			fmt.Fprintln(c.out, "Ингредиент обновлен.")
		case "4":
			id, ok := c.promptInt64("ID ингредиента для удаления: ")
			if !ok {
				continue
			}
			if !c.confirm("Удалить ингредиент и его строки в техкартах? (да/нет): ") {
				fmt.Fprintln(c.out, "Отменено.")
				continue
			}
			if err := c.menu.DeleteIngredient(ctx, id); err != nil {
				c.printError(err)
				continue
			}
			fmt.Fprintln(c.out, "Ингредиент удален.")
		default:
			fmt.Fprintln(c.out, "Неверный выбор.")
		}
	}
}

func (c *console) listIngredients(ctx context.Context) {
	ingredients, err := c.menu.ListIngredients(ctx)
	if err != nil {
		c.printError(err)
		return
	}
	if len(ingredients) == 0 {
		fmt.Fprintln(c.out, "Ингредиентов пока нет.")
		return
	}
	w := c.table()
	fmt.Fprintln(w, "ID\tНазвание\tЕд.\tЦена за ед.\tПоставщик")
	for _, ing := range ingredients {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			ing.ID, ing.Name, ing.Unit, ing.PricePerUnit.StringFixed(2), strOrDash(ing.Supplier))
	}
	w.Flush() //nolint:errcheck
}

func (c *console) manageDishes(ctx context.Context) {
	for !c.eof {
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, "--- Блюда ---")
		fmt.Fprintln(c.out, "1. Список блюд")
		fmt.Fprintln(c.out, "2. Добавить блюдо")
		fmt.Fprintln(c.out, "3. Изменить блюдо")
		fmt.Fprintln(c.out, "4. Удалить блюдо")
		fmt.Fprintln(c.out, "0. Назад")

		switch c.prompt("\nВыберите действие: ") {
		case "0":
			return
		case "1":
			c.listDishes(ctx)
		case "2":
			name := c.prompt("Название блюда: ")
			if name == "" {
				fmt.Fprintln(c.out, "Название не может быть пустым.")
				continue
			}
			price, ok := c.promptDecimal("Цена продажи: ")
			if !ok {
				continue
			}
			category := c.prompt("Категория (завтраки, напитки, десерты...): ")
			req := service.DishRequest{
				Name:        name,
				Price:       price,
				Category:    category,
				Description: c.promptOptional("Описание (необязательно): "),
			}
			dish, err := c.menu.CreateDish(ctx, req)
			if err != nil {
				c.printError(err)
				continue
			}
			fmt.Fprintf(c.out, "Блюдо добавлено! ID: %d\n", dish.ID)
		case "3":
			id, ok := c.promptInt64("ID блюда: ")
			if !ok {
				continue
			}
			current, err := c.menu.GetDish(ctx, id)
			if err != nil {
				c.printError(err)
				continue
			}
			fmt.Fprintf(c.out, "Текущие значения: %s, %s, %s\n",
				current.Name, current.Price.StringFixed(2), current.Category)
			req := service.DishRequest{
				Name:        current.Name,
				Price:       current.Price,
				Category:    current.Category,
				Description: current.Description,
			}
			if v := c.prompt("Новое название (Enter — оставить): "); v != "" {
				req.Name = v
			}
			if v := c.prompt("Новая цена (Enter — оставить): "); v != "" {
				price, err := decimal.NewFromString(v)
				if err != nil {
					fmt.Fprintln(c.out, "Ошибка: неверный формат цены")
					continue
				}
				req.Price = price
			}
			if v := c.prompt("Новая категория (Enter — оставить): "); v != "" {
				req.Category = v
			}
			if _, err := c.menu.UpdateDish(ctx, id, req); err != nil {
				c.printError(err)
				continue
			}
			fmt.Fprintln(c.out, "Блюдо обновлено.")
		case "4":
			id, ok := c.promptInt64("ID блюда для удаления: ")
			if !ok {
				continue
			}
			if !c.confirm("Удалить блюдо вместе с техкартой? (да/нет): ") {
				fmt.Fprintln(c.out, "Отменено.")
				continue
			}
			if err := c.menu.DeleteDish(ctx, id); err != nil {
				c.printError(err)
				continue
			}
			fmt.Fprintln(c.out, "Блюдо удалено.")
		default:
			fmt.Fprintln(c.out, "Неверный выбор.")
		}
	}
}

func (c *console) listDishes(ctx context.Context) {
	dishes, err := c.menu.ListDishes(ctx)
	if err != nil {
		c.printError(err)
		return
	}
	if len(dishes) == 0 {
		fmt.Fprintln(c.out, "Блюд пока нет.")
		return
	}
	w := c.table()
	fmt.Fprintln(w, "ID\tНазвание\tКатегория\tЦена")
	for _, dish := range dishes {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", dish.ID, dish.Name, dish.Category, dish.Price.StringFixed(2))
	}
	w.Flush() //nolint:errcheck
}

func (c *console) manageRecipes(ctx context.Context) {
	for !c.eof {
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, "--- Техкарты ---")
		fmt.Fprintln(c.out, "1. Показать техкарту блюда")
		fmt.Fprintln(c.out, "2. Добавить/изменить ингредиент в блюде")
		fmt.Fprintln(c.out, "3. Удалить ингредиент из блюда")
		fmt.Fprintln(c.out, "0. Назад")

		switch c.prompt("\nВыберите действие: ") {
		case "0":
			return
		case "1":
			dishID, ok := c.promptInt64("ID блюда: ")
			if !ok {
				continue
			}
			c.showRecipe(ctx, dishID)
		case "2":
			c.listDishes(ctx)
			dishID, ok := c.promptInt64("\nID блюда: ")
			if !ok {
				continue
			}
			c.listIngredients(ctx)
			ingredientID, ok := c.promptInt64("\nID ингредиента: ")
			if !ok {
				continue
			}
			quantity, ok := c.promptDecimal("Количество (в единицах ингредиента): ")
			if !ok {
				continue
			}
			if _, err := c.menu.SetRecipeItem(ctx, dishID, ingredientID, quantity); err != nil {
				c.printError(err)
				continue
			}
			fmt.Fprintln(c.out, "Техкарта обновлена.")
		case "3":
			dishID, ok := c.promptInt64("ID блюда: ")
			if !ok {
				continue
			}
			ingredientID, ok := c.promptInt64("ID ингредиента: ")
			if !ok {
				continue
			}
			if err := c.menu.RemoveRecipeItem(ctx, dishID, ingredientID); err != nil {
				c.printError(err)
				continue
			}
			fmt.Fprintln(c.out, "Ингредиент удален из техкарты.")
		default:
			fmt.Fprintln(c.out, "Неверный выбор.")
		}
	}
}

func (c *console) showRecipe(ctx context.Context, dishID int64) {
	dish, err := c.menu.GetDish(ctx, dishID)
	if err != nil {
		c.printError(err)
		return
	}
	items, err := c.menu.Recipe(ctx, dishID)
	if err != nil {
		c.printError(err)
		return
	}

	fmt.Fprintf(c.out, "\nТехкарта: %s\n", dish.Name)
	if len(items) == 0 {
		fmt.Fprintln(c.out, "Техкарта пуста. Добавьте ингредиенты.")
		return
	}

	total := decimal.Zero
	w := c.table()
	fmt.Fprintln(w, "Ингредиент\tКол-во\tЕд.\tЦена за ед.\tСтоимость")
	for _, item := range items {
		cost := item.Cost()
		total = total.Add(cost)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			item.IngredientName, item.Quantity.String(), item.IngredientUnit,
			item.PricePerUnit.StringFixed(2), cost.StringFixed(2))
	}
	w.Flush() //nolint:errcheck
	fmt.Fprintf(c.out, "Итого себестоимость: %s\n", total.StringFixed(2))
}

func (c *console) showCosts(ctx context.Context) {
	entries, err := c.menu.Menu(ctx)
	if err != nil {
		c.printError(err)
		return
	}
	if len(entries) == 0 {
		fmt.Fprintln(c.out, "Блюд пока нет.")
		return
	}

	fmt.Fprintln(c.out, "\n--- Себестоимость и наценка ---")
	w := c.table()
	fmt.Fprintln(w, "Блюдо\tЦена\tСебестоимость\tПрибыль\tНаценка %\tМаржа %")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			entry.Dish.Name,
			entry.Dish.Price.StringFixed(2),
			entry.Cost.StringFixed(2),
			entry.Margin.StringFixed(2),
			entry.MarkupPct.StringFixed(1),
			entry.MarginPct.StringFixed(1))
	}
	w.Flush() //nolint:errcheck
	c.pause()
}

func (c *console) manageExpenses(ctx context.Context) {
	for !c.eof {
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, "--- Расходы ---")
		fmt.Fprintln(c.out, "1. Список расходов")
		fmt.Fprintln(c.out, "2. Добавить расход")
		fmt.Fprintln(c.out, "3. Удалить расход")
		fmt.Fprintln(c.out, "0. Назад")

		switch c.prompt("\nВыберите действие: ") {
		case "0":
			return
		case "1":
			from, ok := c.promptOptionalDate("Начальная дата (YYYY-MM-DD, необязательно): ")
			if !ok {
				continue
			}
			to, ok := c.promptOptionalDate("Конечная дата (YYYY-MM-DD, необязательно): ")
			if !ok {
				continue
			}
			filter := repository.ExpenseFilter{}
			if !from.IsZero() {
				filter.From = &from
			}
			if !to.IsZero() {
				filter.To = &to
			}
			expenses, err := c.finance.ListExpenses(ctx, filter)
			if err != nil {
				c.printError(err)
				continue
			}
			if len(expenses) == 0 {
				fmt.Fprintln(c.out, "Расходов не найдено.")
				continue
			}
			total := decimal.Zero
			w := c.table()
			fmt.Fprintln(w, "ID\tДата\tКатегория\tСумма\tОписание")
			for _, e := range expenses {
				total = total.Add(e.Amount)
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					e.ID, e.SpentOn.Format(consoleDateLayout), e.Category,
					e.Amount.StringFixed(2), strOrDash(e.Description))
			}
			w.Flush() //nolint:errcheck
			fmt.Fprintf(c.out, "Итого: %s\n", total.StringFixed(2))
		case "2":
			spentOn, ok := c.promptOptionalDate("Дата (YYYY-MM-DD) [сегодня]: ")
			if !ok {
				continue
			}
			category := c.prompt("Категория (продукты, аренда, зарплата...): ")
			if category == "" {
				fmt.Fprintln(c.out, "Категория не может быть пустой.")
				continue
			}
			amount, ok := c.promptDecimal("Сумма: ")
			if !ok {
				continue
			}
			req := service.ExpenseRequest{
				SpentOn:     spentOn,
				Category:    category,
				Amount:      amount,
				Description: c.promptOptional("Описание (необязательно): "),
			}
			expense, err := c.finance.AddExpense(ctx, req)
			if err != nil {
				c.printError(err)
				continue
			}
			fmt.Fprintf(c.out, "Расход добавлен! ID: %d\n", expense.ID)
		case "3":
			id, ok := c.promptInt64("ID расхода для удаления: ")
			if !ok {
				continue
			}
			if err := c.finance.DeleteExpense(ctx, id); err != nil {
				c.printError(err)
				continue
			}
			fmt.Fprintln(c.out, "Расход удален.")
		default:
			fmt.Fprintln(c.out, "Неверный выбор.")
		}
	}
}

func (c *console) manageSales(ctx context.Context) {
	for !c.eof {
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, "--- Продажи ---")
		fmt.Fprintln(c.out, "1. Список продаж")
		fmt.Fprintln(c.out, "2. Добавить продажу")
		fmt.Fprintln(c.out, "3. Удалить продажу")
		fmt.Fprintln(c.out, "0. Назад")

		switch c.prompt("\nВыберите действие: ") {
		case "0":
			return
		case "1":
			from, ok := c.promptOptionalDate("Начальная дата (YYYY-MM-DD, необязательно): ")
			if !ok {
				continue
			}
			to, ok := c.promptOptionalDate("Конечная дата (YYYY-MM-DD, необязательно): ")
			if !ok {
				continue
			}
			filter := repository.SaleFilter{}
			if !from.IsZero() {
				filter.From = &from
			}
			if !to.IsZero() {
				filter.To = &to
			}
			sales, err := c.finance.ListSales(ctx, filter)
			if err != nil {
				c.printError(err)
				continue
			}
			if len(sales) == 0 {
				fmt.Fprintln(c.out, "Продаж не найдено.")
				continue
			}
			total := decimal.Zero
			w := c.table()
			fmt.Fprintln(w, "ID\tДата\tБлюдо\tКол-во\tЦена\tСумма")
			for _, s := range sales {
				total = total.Add(s.Total)
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\n",
					s.ID, s.SoldOn.Format(consoleDateLayout), s.DishName,
					s.Quantity, s.UnitPrice.StringFixed(2), s.Total.StringFixed(2))
			}
			w.Flush() //nolint:errcheck
			fmt.Fprintf(c.out, "Итого выручка: %s\n", total.StringFixed(2))
		case "2":
			c.listDishes(ctx)
			dishID, ok := c.promptInt64("\nID блюда: ")
			if !ok {
				continue
			}
			quantity, ok := c.promptInt("Количество [1]: ", 1)
			if !ok {
				continue
			}
			soldOn, ok := c.promptOptionalDate("Дата (YYYY-MM-DD) [сегодня]: ")
			if !ok {
				continue
			}
			sale, err := c.finance.AddSale(ctx, service.SaleRequest{
				SoldOn:   soldOn,
				DishID:   dishID,
				Quantity: quantity,
			})
			if err != nil {
				c.printError(err)
				continue
			}
			fmt.Fprintf(c.out, "Продажа записана! Сумма: %s\n", sale.Total.StringFixed(2))
		case "3":
			id, ok := c.promptInt64("ID продажи для удаления: ")
			if !ok {
				continue
			}
			if err := c.finance.DeleteSale(ctx, id); err != nil {
				c.printError(err)
				continue
			}
			fmt.Fprintln(c.out, "Продажа удалена.")
		default:
			fmt.Fprintln(c.out, "Неверный выбор.")
		}
	}
}

func (c *console) showFinancialReport(ctx context.Context) {
	from, ok := c.promptOptionalDate("Начальная дата (YYYY-MM-DD, необязательно): ")
	if !ok {
		return
	}
	to, ok := c.promptOptionalDate("Конечная дата (YYYY-MM-DD, необязательно): ")
	if !ok {
		return
	}

	report, err := c.finance.Report(ctx, from, to)
	if err != nil {
		c.printError(err)
		return
	}

	fmt.Fprintln(c.out, "\n--- Финансовый отчет ---")
	if !from.IsZero() || !to.IsZero() {
		fmt.Fprintf(c.out, "Период: %s — %s\n", formatPeriodBound(from), formatPeriodBound(to))
	} else {
		fmt.Fprintln(c.out, "За весь период")
	}

	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "Выручка:                         %15s\n", report.Revenue.StringFixed(2))
	fmt.Fprintf(c.out, "Себестоимость проданных товаров: %15s\n", report.CostOfGoods.StringFixed(2))
	fmt.Fprintf(c.out, "Валовая прибыль:                 %15s\n", report.GrossProfit.StringFixed(2))
	fmt.Fprintf(c.out, "Расходы:                         %15s\n", report.ExpenseTotal.StringFixed(2))
	fmt.Fprintf(c.out, "Чистая прибыль:                  %15s\n", report.NetProfit.StringFixed(2))

	if len(report.ExpensesByCategory) > 0 {
		fmt.Fprintln(c.out, "\nРасходы по категориям:")
		w := c.table()
		for _, ct := range report.ExpensesByCategory {
			fmt.Fprintf(w, "  %s\t%s\n", ct.Category, ct.Total.StringFixed(2))
		}
		w.Flush() //nolint:errcheck
	}
	c.pause()
}

func (c *console) exportToExcel(ctx context.Context) {
	fmt.Fprintln(c.out, "\n--- Экспорт в Excel ---")
	fmt.Fprintln(c.out, "1. Меню с себестоимостью")
	fmt.Fprintln(c.out, "2. Техкарты")
	fmt.Fprintln(c.out, "3. Финансовый отчет")
	fmt.Fprintln(c.out, "0. Назад")

	switch c.prompt("\nВыберите вариант экспорта: ") {
	case "1":
		filename := c.promptDefault("Имя файла [cafe_menu.xlsx]: ", "cafe_menu.xlsx")
		data, err := c.exports.MenuWorkbook(ctx)
		if err != nil {
			fmt.Fprintf(c.out, "Ошибка при экспорте: %v\n", err)
			return
		}
		c.saveWorkbook(filename, data)
	case "2":
		filename := c.promptDefault("Имя файла [tech_cards.xlsx]: ", "tech_cards.xlsx")
		data, err := c.exports.TechCardsWorkbook(ctx)
		if err != nil {
			fmt.Fprintf(c.out, "Ошибка при экспорте: %v\n", err)
			return
		}
		c.saveWorkbook(filename, data)
	case "3":
		from, ok := c.promptOptionalDate("Начальная дата (YYYY-MM-DD, необязательно): ")
		if !ok {
			return
		}
		to, ok := c.promptOptionalDate("Конечная дата (YYYY-MM-DD, необязательно): ")
		if !ok {
			return
		}
		filename := c.promptDefault("Имя файла [financial_report.xlsx]: ", "financial_report.xlsx")
		data, err := c.exports.FinancialReportWorkbook(ctx, from, to)
		if err != nil {
			fmt.Fprintf(c.out, "Ошибка при экспорте: %v\n", err)
			return
		}
		c.saveWorkbook(filename, data)
	}
}

func (c *console) saveWorkbook(filename string, data []byte) {
	if err := os.WriteFile(filename, data, 0o644); err != nil { // #nosec G306 -- operator-chosen report file.
		fmt.Fprintf(c.out, "Ошибка при сохранении: %v\n", err)
		return
	}
	fmt.Fprintf(c.out, "Файл сохранен: %s\n", filename)
}

func (c *console) manageLoyalty(ctx context.Context) {
	for !c.eof {
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, "--- Клиенты и лояльность ---")
		fmt.Fprintln(c.out, "Правило: каждое 7-е посещение — БЕСПЛАТНО (завтраки и кофе считаются отдельно)")
		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, "1. Список клиентов")
		fmt.Fprintln(c.out, "2. Добавить клиента")
		fmt.Fprintln(c.out, "3. Удалить клиента")
		fmt.Fprintln(c.out, "4. Зарегистрировать посещение")
		fmt.Fprintln(c.out, "5. История посещений клиента")
		fmt.Fprintln(c.out, "6. Статистика клиента")
		fmt.Fprintln(c.out, "0. Назад")

		switch c.prompt("\nВыберите действие: ") {
		case "0":
			return
		case "1":
			c.listClients(ctx)
		case "2":
			name := c.prompt("Имя клиента: ")
			if name == "" {
				fmt.Fprintln(c.out, "Имя не может быть пустым.")
				continue
			}
			client, err := c.clients.Create(ctx, service.CreateClientRequest{
				Name:  name,
				Phone: c.promptOptional("Телефон (необязательно): "),
				Notes: c.promptOptional("Примечания (необязательно): "),
			})
			if err != nil {
				c.printError(err)
				continue
			}
			fmt.Fprintf(c.out, "Клиент добавлен! ID: %d, баркод: %s\n", client.ID, client.Barcode)
		case "3":
			id, ok := c.promptInt64("ID клиента для удаления: ")
			if !ok {
				continue
			}
			client, err := c.clients.Get(ctx, id)
			if err != nil {
				c.printError(err)
				continue
			}
			if !c.confirm(fmt.Sprintf("Удалить «%s» и всю историю посещений? (да/нет): ", client.Name)) {
				fmt.Fprintln(c.out, "Отменено.")
				continue
			}
			if err := c.clients.Delete(ctx, id); err != nil {
				c.printError(err)
				continue
			}
			fmt.Fprintln(c.out, "Клиент удален.")
		case "4":
			c.registerVisit(ctx)
		case "5":
			c.showVisitHistory(ctx)
		case "6":
			c.showClientStats(ctx)
		default:
			fmt.Fprintln(c.out, "Неверный выбор.")
		}
	}
}

func (c *console) listClients(ctx context.Context) {
	clients, _, err := c.clients.List(ctx, repository.ClientListFilter{})
	if err != nil {
		c.printError(err)
		return
	}
	if len(clients) == 0 {
		fmt.Fprintln(c.out, "Клиентов пока нет.")
		return
	}
	w := c.table()
	fmt.Fprintln(w, "ID\tИмя\tБаркод\tТелефон\tTelegram\tПримечания")
	for _, client := range clients {
		linked := "—"
		if client.TelegramLinked() {
			linked = "да"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			client.ID, client.Name, client.Barcode,
			strOrDash(client.Phone), linked, strOrDash(client.Notes))
	}
	w.Flush() //nolint:errcheck
}

func (c *console) registerVisit(ctx context.Context) {
	category, ok := c.promptCategory()
	if !ok {
		return
	}

	clients, _, err := c.clients.List(ctx, repository.ClientListFilter{})
	if err != nil {
		c.printError(err)
		return
	}
	if len(clients) == 0 {
		fmt.Fprintln(c.out, "Сначала добавьте клиента.")
		return
	}

	fmt.Fprintln(c.out, "\nСписок клиентов:")
	for _, client := range clients {
		stats, err := c.scans.StatsFor(ctx, client.ID, category)
		if err != nil {
			c.printError(err)
			return
		}
		freeMark := ""
		if stats.NextFree {
			freeMark = "  ← СЛЕДУЮЩЕЕ БЕСПЛАТНО!"
		}
		fmt.Fprintf(c.out, "  %d. %s  (всего: %d, до бесплатного: %d)%s\n",
			client.ID, client.Name, stats.Total, stats.UntilFree, freeMark)
	}

	clientID, ok := c.promptInt64("\nID клиента: ")
	if !ok {
		return
	}
	visitedOn, ok := c.promptOptionalDate("Дата (YYYY-MM-DD) [сегодня]: ")
	if !ok {
		return
	}

	result, err := c.scans.RegisterVisit(ctx, clientID, category, visitedOn)
	if err != nil {
		c.printError(err)
		return
	}

	if result.Visit.Free {
		fmt.Fprintf(c.out, "\n*** ПОЗДРАВЛЯЕМ! Это %d-е посещение %s — БЕСПЛАТНО! ***\n",
			result.Visit.Ordinal, result.Client.Name)
		return
	}

	fmt.Fprintf(c.out, "\nПосещение зарегистрировано! Всего: %d.\n", result.Stats.Total)
	if result.Stats.NextFree {
		fmt.Fprintln(c.out, ">>> Следующее посещение будет БЕСПЛАТНЫМ! <<<")
	} else {
		fmt.Fprintf(c.out, "До бесплатного осталось: %d.\n", result.Stats.UntilFree)
	}
}

func (c *console) showVisitHistory(ctx context.Context) {
	clientID, ok := c.promptInt64("ID клиента: ")
	if !ok {
		return
	}
	client, err := c.clients.Get(ctx, clientID)
	if err != nil {
		c.printError(err)
		return
	}
	category, ok := c.promptCategory()
	if !ok {
		return
	}

	visits, err := c.scans.History(ctx, clientID, category)
	if err != nil {
		c.printError(err)
		return
	}
	if len(visits) == 0 {
		fmt.Fprintf(c.out, "У %s пока нет посещений в этой категории.\n", client.Name)
		return
	}

	fmt.Fprintf(c.out, "\nИстория посещений: %s (%s)\n", client.Name, categoryTitle(category))
	freeCount := 0
	w := c.table()
	fmt.Fprintln(w, "№\tДата\tСтатус")
	for _, v := range visits {
		status := "Платное"
		if v.Free {
			status = "БЕСПЛАТНО"
			freeCount++
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", v.Ordinal, v.VisitedOn.Format(consoleDateLayout), status)
	}
	w.Flush() //nolint:errcheck
	fmt.Fprintf(c.out, "\nВсего: %d, из них бесплатных: %d\n", len(visits), freeCount)
}

func (c *console) showClientStats(ctx context.Context) {
	clientID, ok := c.promptInt64("ID клиента: ")
	if !ok {
		return
	}
	client, err := c.clients.Get(ctx, clientID)
	if err != nil {
		c.printError(err)
		return
	}

	fmt.Fprintf(c.out, "\n--- Статистика: %s ---\n", client.Name)
	for _, category := range []model.VisitCategory{model.CategoryBreakfast, model.CategoryCoffee} {
		stats, err := c.scans.StatsFor(ctx, clientID, category)
		if err != nil {
			c.printError(err)
			return
		}
		fmt.Fprintf(c.out, "\n%s:\n", categoryTitle(category))
		fmt.Fprintf(c.out, "  Всего посещений:         %d\n", stats.Total)
		fmt.Fprintf(c.out, "  До бесплатного осталось: %d\n", stats.UntilFree)
		if stats.NextFree {
			fmt.Fprintln(c.out, "  >>> Следующее посещение — БЕСПЛАТНОЕ! <<<")
		}
	}
	c.pause()
}

func (c *console) promptCategory() (model.VisitCategory, bool) {
	switch c.prompt("Категория (1 — завтрак, 2 — кофе): ") {
	case "1":
		return model.CategoryBreakfast, true
	case "2":
		return model.CategoryCoffee, true
	default:
		fmt.Fprintln(c.out, "Неверная категория.")
		return "", false
	}
}

func (c *console) prompt(label string) string {
	fmt.Fprint(c.out, label)
	if !c.in.Scan() {
		c.eof = true
		return "0"
	}
	return strings.TrimSpace(c.in.Text())
}

func (c *console) promptDefault(label, fallback string) string {
	if v := c.prompt(label); v != "" {
		return v
	}
	return fallback
}

func (c *console) promptOptional(label string) *string {
	v := c.prompt(label)
	if v == "" {
		return nil
	}
	return &v
}

func (c *console) promptInt64(label string) (int64, bool) {
	v, err := strconv.ParseInt(c.prompt(label), 10, 64)
	if err != nil {
		fmt.Fprintln(c.out, "Ошибка: неверный формат ID")
		return 0, false
	}
	return v, true
}

func (c *console) promptInt(label string, fallback int) (int, bool) {
	raw := c.prompt(label)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		fmt.Fprintln(c.out, "Ошибка: неверный формат числа")
		return 0, false
	}
	return v, true
}

func (c *console) promptDecimal(label string) (decimal.Decimal, bool) {
	v, err := decimal.NewFromString(c.prompt(label))
	if err != nil {
		fmt.Fprintln(c.out, "Ошибка: неверный формат суммы")
		return decimal.Zero, false
	}
	return v, true
}

// promptOptionalDate returns a zero time when the operator leaves the field
// empty; the services treat a zero time as "today" or "unbounded".
func (c *console) promptOptionalDate(label string) (time.Time, bool) {
	raw := c.prompt(label)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.ParseInLocation(consoleDateLayout, raw, time.UTC)
	if err != nil {
		fmt.Fprintln(c.out, "Ошибка: неверный формат даты, ожидается YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

func (c *console) confirm(label string) bool {
	switch strings.ToLower(c.prompt(label)) {
	case "да", "y", "yes":
		return true
	default:
		return false
	}
}

func (c *console) pause() {
	if c.eof {
		return
	}
	fmt.Fprint(c.out, "\nНажмите Enter для продолжения...")
	if !c.in.Scan() {
		c.eof = true
	}
}

func (c *console) table() *tabwriter.Writer {
	return tabwriter.NewWriter(c.out, 2, 4, 2, ' ', 0)
}

func (c *console) printError(err error) {
	switch {
	case errors.Is(err, service.ErrClientNotFound):
		fmt.Fprintln(c.out, "Клиент не найден.")
	case errors.Is(err, service.ErrIngredientNotFound):
		fmt.Fprintln(c.out, "Ингредиент не найден.")
	case errors.Is(err, service.ErrDishNotFound):
		fmt.Fprintln(c.out, "Блюдо не найдено.")
	case errors.Is(err, service.ErrExpenseNotFound):
		fmt.Fprintln(c.out, "Расход не найден.")
	case errors.Is(err, service.ErrSaleNotFound):
		fmt.Fprintln(c.out, "Продажа не найдена.")
	case errors.Is(err, service.ErrNameTaken):
		fmt.Fprintln(c.out, "Такое название уже занято.")
	case errors.Is(err, service.ErrDishInUse):
		fmt.Fprintln(c.out, "По блюду уже есть продажи, удаление невозможно.")
	case errors.Is(err, service.ErrInvalidMenuInput),
		errors.Is(err, service.ErrInvalidFinanceInput),
		errors.Is(err, service.ErrInvalidClientInput):
		fmt.Fprintln(c.out, "Ошибка: неверные данные, проверьте ввод.")
	default:
		fmt.Fprintf(c.out, "Ошибка: %v\n", err)
	}
}

func categoryTitle(category model.VisitCategory) string {
	if category == model.CategoryCoffee {
		return "Кофе"
	}
	return "Завтраки"
}

func formatPeriodBound(t time.Time) string {
	if t.IsZero() {
		return "…"
	}
	return t.Format(consoleDateLayout)
}

func strOrDash(v *string) string {
	if v == nil || *v == "" {
		return "—"
	}
	return *v
}
